package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tendant/postcrud/pkg/postcrud"
)

const (
	defaultPrefix = "postcrud"
	postTypeField = "post_type"
)

// Host implements postcrud.Host over Redis hashes. Each item is stored as
// <prefix>:item:<id> and its metadata as <prefix>:meta:<id>; ids come from
// INCR on <prefix>:seq.
type Host struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures the host
type Option func(*Host)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) Option {
	return func(h *Host) {
		if prefix != "" {
			h.prefix = prefix
		}
	}
}

// New wraps an existing client.
func New(rdb redis.UniversalClient, opts ...Option) *Host {
	h := &Host{rdb: rdb, prefix: defaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dial parses a redis:// URL, connects and pings.
func Dial(ctx context.Context, url string, opts ...Option) (*Host, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(rdb, opts...), nil
}

// Close closes the underlying client
func (h *Host) Close() error {
	return h.rdb.Close()
}

var _ postcrud.Host = (*Host)(nil)

func (h *Host) seqKey() string          { return h.prefix + ":seq" }
func (h *Host) itemKey(id int64) string { return h.prefix + ":item:" + strconv.FormatInt(id, 10) }
func (h *Host) metaKey(id int64) string { return h.prefix + ":meta:" + strconv.FormatInt(id, 10) }

func encodeFields(f postcrud.Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(f))
	for k, v := range f {
		out[k] = postcrud.EncodeValue(v)
	}
	return out
}

func (h *Host) InsertItem(ctx context.Context, payload postcrud.Payload) (int64, error) {
	postType := payload.PostType()
	if postType == "" {
		return 0, postcrud.Rejected("post_type is required")
	}
	if id := payload.CreateID(); id != 0 {
		return 0, postcrud.Rejected("insert payload must not carry an existing id (%d)", id)
	}

	id, err := h.rdb.Incr(ctx, h.seqKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}

	columns := postcrud.DefaultColumns(h.now())
	for k, v := range payload.Columns() {
		columns[k] = v
	}
	columns[postTypeField] = postcrud.String(postType)

	_, err = h.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, h.itemKey(id), encodeFields(columns))
		if len(payload.Meta) > 0 {
			pipe.HSet(ctx, h.metaKey(id), encodeFields(payload.Meta))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store item %d: %w", id, err)
	}
	return id, nil
}

func (h *Host) FetchItem(ctx context.Context, id int64) (postcrud.Fields, error) {
	raw, err := h.rdb.HGetAll(ctx, h.itemKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item %d: %w", id, err)
	}
	if len(raw) == 0 {
		return nil, postcrud.ErrNotFound
	}

	out := make(postcrud.Fields, len(raw)+1)
	for k, s := range raw {
		v, err := postcrud.DecodeValue(s)
		if err != nil {
			return nil, fmt.Errorf("item %d field %s: %w", id, k, err)
		}
		out[k] = v
	}
	out[postcrud.KeyUpdateID] = postcrud.Int(id)
	return out, nil
}

// mutate runs fn inside an optimistic transaction that fails with
// ErrNotFound when the item hash does not exist.
func (h *Host) mutate(ctx context.Context, id int64, fn func(pipe redis.Pipeliner)) error {
	key := h.itemKey(id)
	err := h.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return postcrud.ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			fn(pipe)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, postcrud.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to write item %d: %w", id, err)
	}
	return nil
}

func (h *Host) UpdateItem(ctx context.Context, payload postcrud.Payload) error {
	id := payload.UpdateID()
	if id == 0 {
		return postcrud.Rejected("update payload has no ID")
	}

	columns := payload.Columns()
	if postType := payload.PostType(); postType != "" {
		columns[postTypeField] = postcrud.String(postType)
	}
	postcrud.Touch(columns, h.now())

	return h.mutate(ctx, id, func(pipe redis.Pipeliner) {
		pipe.HSet(ctx, h.itemKey(id), encodeFields(columns))
		if len(payload.Meta) > 0 {
			pipe.HSet(ctx, h.metaKey(id), encodeFields(payload.Meta))
		}
	})
}

func (h *Host) DeleteItem(ctx context.Context, id int64, force bool) error {
	if !force {
		columns := postcrud.Fields{postcrud.ColumnStatus: postcrud.String(postcrud.StatusTrash)}
		postcrud.Touch(columns, h.now())
		return h.mutate(ctx, id, func(pipe redis.Pipeliner) {
			pipe.HSet(ctx, h.itemKey(id), encodeFields(columns))
		})
	}

	n, err := h.rdb.Del(ctx, h.itemKey(id), h.metaKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	if n == 0 {
		return postcrud.ErrNotFound
	}
	return nil
}

func (h *Host) GetMeta(ctx context.Context, id int64, key string) (postcrud.Value, error) {
	n, err := h.rdb.Exists(ctx, h.itemKey(id)).Result()
	if err != nil {
		return postcrud.Value{}, fmt.Errorf("failed to check item %d: %w", id, err)
	}
	if n == 0 {
		return postcrud.Value{}, postcrud.ErrNotFound
	}

	s, err := h.rdb.HGet(ctx, h.metaKey(id), key).Result()
	if errors.Is(err, redis.Nil) {
		return postcrud.Null(), nil
	}
	if err != nil {
		return postcrud.Value{}, fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return postcrud.DecodeValue(s)
}

func (h *Host) SetMeta(ctx context.Context, id int64, key string, value postcrud.Value) error {
	if key == "" {
		return postcrud.Rejected("meta key is required")
	}
	return h.mutate(ctx, id, func(pipe redis.Pipeliner) {
		pipe.HSet(ctx, h.metaKey(id), key, postcrud.EncodeValue(value))
	})
}
