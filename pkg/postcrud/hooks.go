package postcrud

import (
	"context"
	"log/slog"
)

// Hooks extend Item behaviour at fixed points of the write lifecycle.
// Before hooks may edit the outgoing payload or abort the operation by
// returning an error. After hook errors are logged and otherwise ignored.
type Hooks struct {
	BeforeCreate []BeforeWriteHook
	AfterCreate  []AfterWriteHook
	BeforeUpdate []BeforeWriteHook
	AfterUpdate  []AfterWriteHook
	AfterDelete  []AfterDeleteHook
	OnError      []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforeWriteHook is called with the payload about to be sent to the host
type BeforeWriteHook func(hctx *HookContext, item *Item, payload *Payload) error

// AfterWriteHook is called after the host accepted a create or update
type AfterWriteHook func(hctx *HookContext, item *Item) error

// AfterDeleteHook is called after the host deleted an item
type AfterDeleteHook func(hctx *HookContext, id int64, postType string) error

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, op string, err error)

func (h *Hooks) runBefore(ctx context.Context, hooks []BeforeWriteHook, item *Item, payload *Payload) error {
	if h == nil || len(hooks) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range hooks {
		if err := hook(hctx, item, payload); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) runAfter(ctx context.Context, logger *slog.Logger, op string, hooks []AfterWriteHook, item *Item) {
	if h == nil || len(hooks) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range hooks {
		if err := hook(hctx, item); err != nil {
			logger.Warn("after hook failed", "op", op, "id", item.ID(), "error", err)
		}
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) runAfterDelete(ctx context.Context, logger *slog.Logger, id int64, postType string) {
	if h == nil || len(h.AfterDelete) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterDelete {
		if err := hook(hctx, id, postType); err != nil {
			logger.Warn("after delete hook failed", "id", id, "error", err)
		}
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) runError(ctx context.Context, op string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, op, err)
		if hctx.StopChain {
			break
		}
	}
}
