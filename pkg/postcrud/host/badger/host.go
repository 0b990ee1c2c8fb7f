package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tendant/postcrud/pkg/postcrud"
)

const seqBandwidth = 100

// Host implements postcrud.Host on an embedded Badger database. An item is
// one JSON document under item/<id>; each metadata entry is its own key
// under meta/<id>/<key>.
type Host struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

type document struct {
	PostType string            `json:"post_type"`
	Columns  map[string]string `json:"columns"`
}

// Open opens (or creates) a database in dir. An empty dir opens an
// in-memory database.
func Open(dir string) (*Host, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Silence default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	h, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// New wraps an open database.
func New(db *badger.DB) (*Host, error) {
	seq, err := db.GetSequence([]byte("seq/items"), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to open id sequence: %w", err)
	}
	return &Host{db: db, seq: seq, now: time.Now}, nil
}

// Close releases the id sequence and closes the database
func (h *Host) Close() error {
	var errs []error
	if h.seq != nil {
		errs = append(errs, h.seq.Release())
	}
	if h.db != nil {
		errs = append(errs, h.db.Close())
	}
	return errors.Join(errs...)
}

var _ postcrud.Host = (*Host)(nil)

func itemKey(id int64) []byte {
	return []byte(fmt.Sprintf("item/%020d", id))
}

func metaPrefix(id int64) []byte {
	return []byte(fmt.Sprintf("meta/%020d/", id))
}

func metaKey(id int64, key string) []byte {
	return append(metaPrefix(id), key...)
}

func encodeColumns(f postcrud.Fields) map[string]string {
	out := make(map[string]string, len(f))
	for k, v := range f {
		out[k] = postcrud.EncodeValue(v)
	}
	return out
}

func loadDocument(txn *badger.Txn, id int64) (*document, error) {
	item, err := txn.Get(itemKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, postcrud.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc document
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode item %d: %w", id, err)
	}
	if doc.Columns == nil {
		doc.Columns = map[string]string{}
	}
	return &doc, nil
}

func storeDocument(txn *badger.Txn, id int64, doc *document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return txn.Set(itemKey(id), data)
}

func writeMeta(txn *badger.Txn, id int64, meta postcrud.Fields) error {
	for k, v := range meta {
		if err := txn.Set(metaKey(id, k), []byte(postcrud.EncodeValue(v))); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) InsertItem(ctx context.Context, payload postcrud.Payload) (int64, error) {
	postType := payload.PostType()
	if postType == "" {
		return 0, postcrud.Rejected("post_type is required")
	}
	if id := payload.CreateID(); id != 0 {
		return 0, postcrud.Rejected("insert payload must not carry an existing id (%d)", id)
	}

	next, err := h.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}
	// Sequences start at 0; host ids start at 1.
	id := int64(next) + 1

	columns := postcrud.DefaultColumns(h.now())
	for k, v := range payload.Columns() {
		columns[k] = v
	}
	doc := &document{PostType: postType, Columns: encodeColumns(columns)}

	err = h.db.Update(func(txn *badger.Txn) error {
		if err := storeDocument(txn, id, doc); err != nil {
			return err
		}
		return writeMeta(txn, id, payload.Meta)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store item %d: %w", id, err)
	}
	return id, nil
}

func (h *Host) FetchItem(ctx context.Context, id int64) (postcrud.Fields, error) {
	var doc *document
	err := h.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = loadDocument(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make(postcrud.Fields, len(doc.Columns)+2)
	for k, s := range doc.Columns {
		v, err := postcrud.DecodeValue(s)
		if err != nil {
			return nil, fmt.Errorf("item %d field %s: %w", id, k, err)
		}
		out[k] = v
	}
	out[postcrud.KeyUpdateID] = postcrud.Int(id)
	out[postcrud.KeyPostType] = postcrud.String(doc.PostType)
	return out, nil
}

func (h *Host) UpdateItem(ctx context.Context, payload postcrud.Payload) error {
	id := payload.UpdateID()
	if id == 0 {
		return postcrud.Rejected("update payload has no ID")
	}

	columns := payload.Columns()
	postcrud.Touch(columns, h.now())

	return h.db.Update(func(txn *badger.Txn) error {
		doc, err := loadDocument(txn, id)
		if err != nil {
			return err
		}
		for k, s := range encodeColumns(columns) {
			doc.Columns[k] = s
		}
		if postType := payload.PostType(); postType != "" {
			doc.PostType = postType
		}
		if err := storeDocument(txn, id, doc); err != nil {
			return err
		}
		return writeMeta(txn, id, payload.Meta)
	})
}

func (h *Host) DeleteItem(ctx context.Context, id int64, force bool) error {
	return h.db.Update(func(txn *badger.Txn) error {
		doc, err := loadDocument(txn, id)
		if err != nil {
			return err
		}

		if !force {
			trash := postcrud.Fields{postcrud.ColumnStatus: postcrud.String(postcrud.StatusTrash)}
			postcrud.Touch(trash, h.now())
			for k, s := range encodeColumns(trash) {
				doc.Columns[k] = s
			}
			return storeDocument(txn, id, doc)
		}

		if err := txn.Delete(itemKey(id)); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = metaPrefix(id)
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *Host) GetMeta(ctx context.Context, id int64, key string) (postcrud.Value, error) {
	value := postcrud.Null()
	err := h.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(itemKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return postcrud.ErrNotFound
			}
			return err
		}

		item, err := txn.Get(metaKey(id, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := postcrud.DecodeValue(string(val))
			if err != nil {
				return err
			}
			value = v
			return nil
		})
	})
	if err != nil {
		return postcrud.Value{}, err
	}
	return value, nil
}

func (h *Host) SetMeta(ctx context.Context, id int64, key string, value postcrud.Value) error {
	if key == "" {
		return postcrud.Rejected("meta key is required")
	}
	return h.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(itemKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return postcrud.ErrNotFound
			}
			return err
		}
		return txn.Set(metaKey(id, key), []byte(postcrud.EncodeValue(value)))
	})
}

// idFromKey parses the id out of an item key.
func idFromKey(key []byte) (int64, bool) {
	var id int64
	if _, err := fmt.Sscanf(string(key), "item/%d", &id); err != nil {
		return 0, false
	}
	return id, true
}

// Count returns the number of stored items.
func (h *Host) Count() (int, error) {
	n := 0
	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("item/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if _, ok := idFromKey(it.Item().Key()); ok {
				n++
			}
		}
		return nil
	})
	return n, err
}
