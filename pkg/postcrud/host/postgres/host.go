package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/postcrud/pkg/postcrud"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// Host implements postcrud.Host using PostgreSQL
type Host struct {
	db  DBTX
	now func() time.Time
}

// New creates a new PostgreSQL host
func New(db DBTX) *Host {
	return &Host{db: db, now: time.Now}
}

// NewWithPool creates a new PostgreSQL host with connection pool
func NewWithPool(pool *pgxpool.Pool) *Host {
	return New(pool)
}

var _ postcrud.Host = (*Host)(nil)

// Migrate creates the posts and postmeta tables when missing.
func (h *Host) Migrate(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

// columnSet is the whitelist of writable columns.
var columnSet = func() map[string]bool {
	m := make(map[string]bool, len(postcrud.HydratedColumns))
	for _, c := range postcrud.HydratedColumns {
		m[c] = true
	}
	return m
}()

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", operation, postcrud.ErrNotFound)
		case "23502": // not_null_violation
			return postcrud.Rejected("required field %s is missing", pgErr.ColumnName)
		case "22001", "22003", "22007", "22008", "22P02": // bad value for column type
			return postcrud.Rejected("invalid value in %s: %s", operation, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return postcrud.ErrNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func checkColumns(cols postcrud.Fields) error {
	for k := range cols {
		if !columnSet[k] {
			return postcrud.Rejected("unknown column %q", k)
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
	cols := payload.Columns()
	if err := checkColumns(cols); err != nil {
		return 0, err
	}

	row := postcrud.DefaultColumns(h.now())
	for k, v := range cols {
		row[k] = v
	}
	query, args := buildInsert(postType, row)

	tx, err := h.db.Begin(ctx)
	if err != nil {
		return 0, handlePostgresError("insert item", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, handlePostgresError("insert item", err)
	}
	for _, key := range sortedKeys(payload.Meta) {
		if err := upsertMeta(ctx, tx, id, key, payload.Meta[key]); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, handlePostgresError("insert item", err)
	}
	return id, nil
}

func (h *Host) FetchItem(ctx context.Context, id int64) (postcrud.Fields, error) {
	query := "SELECT id, post_type, " + strings.Join(quoted(postcrud.HydratedColumns), ", ") +
		" FROM posts WHERE id = $1"

	rows, err := h.db.Query(ctx, query, id)
	if err != nil {
		return nil, handlePostgresError("fetch item", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, handlePostgresError("fetch item", err)
	}

	out, err := postcrud.FieldsOf(row)
	if err != nil {
		return nil, fmt.Errorf("fetch item: %w", err)
	}
	out[postcrud.KeyUpdateID] = out["id"]
	delete(out, "id")
	return out, nil
}

func (h *Host) UpdateItem(ctx context.Context, payload postcrud.Payload) error {
	id := payload.UpdateID()
	if id == 0 {
		return postcrud.Rejected("update payload has no ID")
	}
	cols := payload.Columns()
	if err := checkColumns(cols); err != nil {
		return err
	}
	postcrud.Touch(cols, h.now())
	query, args := buildUpdate(id, payload.PostType(), cols)

	tx, err := h.db.Begin(ctx)
	if err != nil {
		return handlePostgresError("update item", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return handlePostgresError("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return postcrud.ErrNotFound
	}
	for _, key := range sortedKeys(payload.Meta) {
		if err := upsertMeta(ctx, tx, id, key, payload.Meta[key]); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return handlePostgresError("update item", err)
	}
	return nil
}

func (h *Host) DeleteItem(ctx context.Context, id int64, force bool) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if force {
		// postmeta rows go with the post via ON DELETE CASCADE
		tag, err = h.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	} else {
		now := h.now()
		tag, err = h.db.Exec(ctx,
			`UPDATE posts SET post_status = $2, post_modified = $3, post_modified_gmt = $4 WHERE id = $1`,
			id, postcrud.StatusTrash, now.Local(), now.UTC())
	}
	if err != nil {
		return handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return postcrud.ErrNotFound
	}
	return nil
}

func (h *Host) GetMeta(ctx context.Context, id int64, key string) (postcrud.Value, error) {
	query := `
		SELECT m.meta_value
		FROM posts p
		LEFT JOIN postmeta m ON m.post_id = p.id AND m.meta_key = $2
		WHERE p.id = $1`

	var raw []byte
	if err := h.db.QueryRow(ctx, query, id, key).Scan(&raw); err != nil {
		return postcrud.Value{}, handlePostgresError("get meta", err)
	}
	if raw == nil {
		return postcrud.Null(), nil
	}
	var v postcrud.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return postcrud.Value{}, fmt.Errorf("get meta: decode %s: %w", key, err)
	}
	return v, nil
}

func (h *Host) SetMeta(ctx context.Context, id int64, key string, value postcrud.Value) error {
	if key == "" {
		return postcrud.Rejected("meta key is required")
	}
	return upsertMeta(ctx, h.db, id, key, value)
}

func upsertMeta(ctx context.Context, db DBTX, id int64, key string, value postcrud.Value) error {
	data, err := json.Marshal(value)
	if err != nil {
		return postcrud.Rejected("meta %s: %v", key, err)
	}
	query := `
		INSERT INTO postmeta (post_id, meta_key, meta_value) VALUES ($1, $2, $3)
		ON CONFLICT (post_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`

	if _, err := db.Exec(ctx, query, id, key, data); err != nil {
		return handlePostgresError("set meta", err)
	}
	return nil
}
