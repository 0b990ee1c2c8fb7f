package postcrud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Item tracks a local snapshot of one host content item and turns local
// changes into the writes needed to bring the host up to date.
//
// Fields set through SetField (and the shorthand setters) are dirty until
// the next successful create or update. Fields loaded by Read are clean.
// Metadata set through SetMeta is staged separately and written on save.
//
// An Item is not safe for concurrent use.
type Item struct {
	host     Host
	logger   *slog.Logger
	hooks    *Hooks
	id       int64
	postType string
	deleted  bool

	fields        Fields
	updatedFields Fields
	metaFields    Fields
}

// Option configures an Item
type Option func(*Item)

// WithLogger sets the logger used for host calls
func WithLogger(logger *slog.Logger) Option {
	return func(i *Item) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithHooks attaches lifecycle hooks
func WithHooks(hooks *Hooks) Option {
	return func(i *Item) {
		if hooks != nil {
			i.hooks = hooks
		}
	}
}

// NewItem creates an unsaved item of the given post type.
func NewItem(host Host, postType PostType, opts ...Option) *Item {
	item := &Item{
		host:          host,
		logger:        slog.Default(),
		hooks:         &Hooks{},
		postType:      string(postType),
		fields:        make(Fields),
		updatedFields: make(Fields),
		metaFields:    make(Fields),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(item)
		}
	}
	return item
}

// LoadItem creates an item bound to an existing id and reads it from the
// host. When the read fails the returned item is still usable (it keeps the
// id but has no fields) and the error says why; use IsNotFound to detect a
// missing item.
func LoadItem(ctx context.Context, host Host, postType PostType, id int64, opts ...Option) (*Item, error) {
	item := NewItem(host, postType, opts...)
	item.SetID(id)
	if id == 0 {
		return item, nil
	}
	if err := item.Read(ctx); err != nil {
		return item, err
	}
	return item, nil
}

// SetID sets the host id of the item. It has no other side effects.
func (i *Item) SetID(id int64) {
	i.id = id
}

// ID returns the host id, 0 when the item was never saved.
func (i *Item) ID() int64 {
	return i.id
}

// PostType returns the type discriminator of the item.
func (i *Item) PostType() string {
	return i.postType
}

// SetPostType changes the type discriminator.
func (i *Item) SetPostType(postType string) {
	i.postType = postType
}

// IsNew reports whether the item has no host id yet.
func (i *Item) IsNew() bool { return i.id == 0 }

// IsDirty reports whether any field or metadata change is pending.
func (i *Item) IsDirty() bool { return len(i.updatedFields) > 0 || len(i.metaFields) > 0 }

// IsDeleted reports whether the item was deleted from the host.
func (i *Item) IsDeleted() bool { return i.deleted }

// SetField sets a field and marks it dirty.
func (i *Item) SetField(key string, value Value) {
	i.setField(key, value, false)
}

// setField always updates fields; only non-initial writes are tracked as
// dirty. Hydration from the host passes initial=true and discards any local
// edit of the same key.
func (i *Item) setField(key string, value Value, initial bool) {
	i.fields[key] = value
	if initial {
		delete(i.updatedFields, key)
		return
	}
	i.updatedFields[key] = value
}

// Field returns the last known value of a field. ErrFieldNotFound is
// returned when the field was never set or loaded.
func (i *Item) Field(key string) (Value, error) {
	v, ok := i.fields[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrFieldNotFound, key)
	}
	return v, nil
}

// Fields returns the create payload: every known field plus the id, the
// post type and, when metadata is staged, meta_input.
func (i *Item) Fields() Payload {
	fields := i.fields.Clone()
	if i.id != 0 {
		fields[KeyCreateID] = Int(i.id)
	} else {
		fields[KeyCreateID] = Null()
	}
	fields[KeyPostType] = String(i.postType)

	p := Payload{Fields: fields}
	if len(i.metaFields) > 0 {
		p.Meta = i.metaFields.Clone()
	}
	return p
}

// UpdatedFields returns the update payload: the dirty fields plus the ID
// and post type. It is empty when nothing is dirty.
func (i *Item) UpdatedFields() Payload {
	fields := i.updatedFields.Clone()
	if len(fields) > 0 {
		fields[KeyUpdateID] = Int(i.id)
		fields[KeyPostType] = String(i.postType)
	}
	return Payload{Fields: fields}
}

// SetMeta stages a metadata value for the next save.
func (i *Item) SetMeta(key string, value Value) {
	i.metaFields[key] = value
}

// Meta returns a staged metadata value, or asks the host when key is not
// staged.
func (i *Item) Meta(ctx context.Context, key string) (Value, error) {
	if i.deleted {
		return Value{}, i.fail(ctx, "get_meta", fmt.Errorf("%w: item was deleted", ErrInvalidState))
	}
	if v, ok := i.metaFields[key]; ok {
		return v, nil
	}
	if i.id == 0 {
		return Null(), nil
	}
	if i.host == nil {
		return Value{}, i.fail(ctx, "get_meta", fmt.Errorf("%w: no host configured", ErrInvalidState))
	}
	v, err := i.host.GetMeta(ctx, i.id, key)
	if err != nil {
		return Value{}, i.fail(ctx, "get_meta", hostError(err))
	}
	return v, nil
}

// Save creates the item when it has no id and updates it otherwise. The
// returned *ItemError has Op "create" or "update" accordingly.
func (i *Item) Save(ctx context.Context) error {
	if i.id == 0 {
		return i.Create(ctx)
	}
	return i.Update(ctx)
}

// Create inserts the item into the host and records the returned id.
func (i *Item) Create(ctx context.Context) error {
	if err := i.checkWritable(); err != nil {
		return i.fail(ctx, "create", err)
	}
	if i.id != 0 {
		return i.fail(ctx, "create", fmt.Errorf("%w: item already has id %d", ErrInvalidState, i.id))
	}

	payload := i.Fields()
	if err := i.hooks.runBefore(ctx, i.hooks.BeforeCreate, i, &payload); err != nil {
		return i.fail(ctx, "create", err)
	}

	id, err := i.host.InsertItem(ctx, payload)
	if err != nil {
		return i.fail(ctx, "create", hostError(err))
	}
	if id == 0 {
		return i.fail(ctx, "create", fmt.Errorf("%w: host returned no id", ErrHostRejected))
	}

	i.SetID(id)
	i.updatedFields = make(Fields)
	i.metaFields = make(Fields)
	i.logger.Debug("item created", "post_type", i.postType, "id", id)

	i.hooks.runAfter(ctx, i.logger, "create", i.hooks.AfterCreate, i)
	return nil
}

// Read loads the item from the host. Loaded fields are not dirty and
// replace any pending local edit. On failure no field is touched.
func (i *Item) Read(ctx context.Context) error {
	if i.deleted {
		return i.fail(ctx, "read", fmt.Errorf("%w: item was deleted", ErrInvalidState))
	}
	if i.id == 0 {
		return i.fail(ctx, "read", fmt.Errorf("%w: item has no id", ErrInvalidState))
	}
	if i.host == nil {
		return i.fail(ctx, "read", fmt.Errorf("%w: no host configured", ErrInvalidState))
	}

	record, err := i.host.FetchItem(ctx, i.id)
	if err != nil {
		return i.fail(ctx, "read", hostError(err))
	}

	for _, column := range HydratedColumns {
		i.setField(column, record[column], true)
	}
	i.logger.Debug("item read", "post_type", i.postType, "id", i.id)
	return nil
}

// Update writes dirty fields and staged metadata to the host. The two are
// independent: metadata is written even when no field changed, and a
// failure in one does not prevent the other.
func (i *Item) Update(ctx context.Context) error {
	if err := i.checkWritable(); err != nil {
		return i.fail(ctx, "update", err)
	}
	if i.id == 0 {
		return i.fail(ctx, "update", fmt.Errorf("%w: item has no id", ErrInvalidState))
	}

	var errs []error

	payload := i.UpdatedFields()
	if !payload.IsEmpty() {
		if err := i.hooks.runBefore(ctx, i.hooks.BeforeUpdate, i, &payload); err != nil {
			return i.fail(ctx, "update", err)
		}
		if err := i.host.UpdateItem(ctx, payload); err != nil {
			errs = append(errs, hostError(err))
		} else {
			i.updatedFields = make(Fields)
		}
	}

	keys := make([]string, 0, len(i.metaFields))
	for k := range i.metaFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := i.host.SetMeta(ctx, i.id, key, i.metaFields[key]); err != nil {
			errs = append(errs, fmt.Errorf("meta %s: %w", key, hostError(err)))
			continue
		}
		delete(i.metaFields, key)
	}

	if len(errs) > 0 {
		return i.fail(ctx, "update", errors.Join(errs...))
	}

	i.logger.Debug("item updated", "post_type", i.postType, "id", i.id, "meta_keys", len(keys))
	i.hooks.runAfter(ctx, i.logger, "update", i.hooks.AfterUpdate, i)
	return nil
}

// Delete permanently removes the item from the host, bypassing any trash.
// A deleted item rejects every further host operation.
func (i *Item) Delete(ctx context.Context) error {
	if err := i.checkWritable(); err != nil {
		return i.fail(ctx, "delete", err)
	}
	if i.id == 0 {
		return i.fail(ctx, "delete", fmt.Errorf("%w: item has no id", ErrInvalidState))
	}

	if err := i.host.DeleteItem(ctx, i.id, true); err != nil {
		return i.fail(ctx, "delete", hostError(err))
	}

	i.deleted = true
	i.logger.Debug("item deleted", "post_type", i.postType, "id", i.id)
	i.hooks.runAfterDelete(ctx, i.logger, i.id, i.postType)
	return nil
}

func (i *Item) checkWritable() error {
	switch {
	case i.deleted:
		return fmt.Errorf("%w: item was deleted", ErrInvalidState)
	case i.postType == "":
		return fmt.Errorf("%w: post type is empty", ErrInvalidState)
	case i.host == nil:
		return fmt.Errorf("%w: no host configured", ErrInvalidState)
	}
	return nil
}

func (i *Item) fail(ctx context.Context, op string, err error) error {
	itemErr := &ItemError{ID: i.id, PostType: i.postType, Op: op, Err: err}
	if errors.Is(err, ErrNotFound) {
		i.logger.Warn("item operation failed", "op", op, "post_type", i.postType, "id", i.id, "error", err)
	} else {
		i.logger.Error("item operation failed", "op", op, "post_type", i.postType, "id", i.id, "error", err)
	}
	i.hooks.runError(ctx, op, itemErr)
	return itemErr
}
