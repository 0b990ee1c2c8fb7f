package postcrud

import "context"

// Host is the content-management host an Item synchronises with.
// Implementations live under host/ and must return ErrNotFound (possibly
// wrapped) when the addressed item does not exist.
type Host interface {
	// InsertItem creates a new item from a create payload and returns its id
	InsertItem(ctx context.Context, payload Payload) (int64, error)

	// FetchItem returns the stored columns of an item
	FetchItem(ctx context.Context, id int64) (Fields, error)

	// UpdateItem merges an update payload into the item named by its ID key
	UpdateItem(ctx context.Context, payload Payload) error

	// DeleteItem removes an item. When force is false the host may move it
	// to the trash instead.
	DeleteItem(ctx context.Context, id int64, force bool) error

	// GetMeta returns a single metadata value, Null when the key is unset
	GetMeta(ctx context.Context, id int64, key string) (Value, error)

	// SetMeta writes a single metadata value
	SetMeta(ctx context.Context, id int64, key string, value Value) error
}
