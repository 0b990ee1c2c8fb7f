package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/postcrud/pkg/postcrud"
)

type record struct {
	postType string
	columns  postcrud.Fields
	meta     postcrud.Fields
}

// Host implements postcrud.Host using in-memory storage
type Host struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]*record
	now    func() time.Time
}

// New creates a new in-memory host
func New() *Host {
	return &Host{
		items: make(map[int64]*record),
		now:   time.Now,
	}
}

var _ postcrud.Host = (*Host)(nil)

func (h *Host) InsertItem(ctx context.Context, payload postcrud.Payload) (int64, error) {
	postType := payload.PostType()
	if postType == "" {
		return 0, postcrud.Rejected("post_type is required")
	}
	if id := payload.CreateID(); id != 0 {
		return 0, postcrud.Rejected("insert payload must not carry an existing id (%d)", id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	columns := postcrud.DefaultColumns(h.now())
	for k, v := range payload.Columns() {
		columns[k] = v
	}
	h.items[id] = &record{
		postType: postType,
		columns:  columns,
		meta:     payload.Meta.Clone(),
	}
	return id, nil
}

func (h *Host) FetchItem(ctx context.Context, id int64) (postcrud.Fields, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rec, ok := h.items[id]
	if !ok {
		return nil, postcrud.ErrNotFound
	}

	// Return a copy to prevent external modifications
	out := rec.columns.Clone()
	out[postcrud.KeyUpdateID] = postcrud.Int(id)
	out[postcrud.KeyPostType] = postcrud.String(rec.postType)
	return out, nil
}

func (h *Host) UpdateItem(ctx context.Context, payload postcrud.Payload) error {
	id := payload.UpdateID()
	if id == 0 {
		return postcrud.Rejected("update payload has no ID")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rec, ok := h.items[id]
	if !ok {
		return postcrud.ErrNotFound
	}
	for k, v := range payload.Columns() {
		rec.columns[k] = v
	}
	if postType := payload.PostType(); postType != "" {
		rec.postType = postType
	}
	for k, v := range payload.Meta {
		rec.meta[k] = v
	}
	postcrud.Touch(rec.columns, h.now())
	return nil
}

func (h *Host) DeleteItem(ctx context.Context, id int64, force bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec, ok := h.items[id]
	if !ok {
		return postcrud.ErrNotFound
	}
	if !force {
		rec.columns[postcrud.ColumnStatus] = postcrud.String(postcrud.StatusTrash)
		postcrud.Touch(rec.columns, h.now())
		return nil
	}
	delete(h.items, id)
	return nil
}

func (h *Host) GetMeta(ctx context.Context, id int64, key string) (postcrud.Value, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rec, ok := h.items[id]
	if !ok {
		return postcrud.Value{}, postcrud.ErrNotFound
	}
	return rec.meta[key], nil
}

func (h *Host) SetMeta(ctx context.Context, id int64, key string, value postcrud.Value) error {
	if key == "" {
		return postcrud.Rejected("meta key is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rec, ok := h.items[id]
	if !ok {
		return postcrud.ErrNotFound
	}
	rec.meta[key] = value
	return nil
}

// Len returns the number of stored items, trashed ones included.
func (h *Host) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}
