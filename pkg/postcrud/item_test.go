package postcrud_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/postcrud/pkg/postcrud"
)

// stubHost records every call and answers from canned responses.
type stubHost struct {
	insertID  int64
	insertErr error
	fetch     postcrud.Fields
	fetchErr  error
	updateErr error
	deleteErr error
	metaErr   error
	meta      map[string]postcrud.Value

	inserts  []postcrud.Payload
	updates  []postcrud.Payload
	deletes  []bool
	metaGets []string
	metaSets map[string]postcrud.Value
}

func newStubHost() *stubHost {
	return &stubHost{
		meta:     map[string]postcrud.Value{},
		metaSets: map[string]postcrud.Value{},
	}
}

func (h *stubHost) InsertItem(ctx context.Context, p postcrud.Payload) (int64, error) {
	h.inserts = append(h.inserts, p)
	return h.insertID, h.insertErr
}

func (h *stubHost) FetchItem(ctx context.Context, id int64) (postcrud.Fields, error) {
	if h.fetchErr != nil {
		return nil, h.fetchErr
	}
	return h.fetch, nil
}

func (h *stubHost) UpdateItem(ctx context.Context, p postcrud.Payload) error {
	h.updates = append(h.updates, p)
	return h.updateErr
}

func (h *stubHost) DeleteItem(ctx context.Context, id int64, force bool) error {
	h.deletes = append(h.deletes, force)
	return h.deleteErr
}

func (h *stubHost) GetMeta(ctx context.Context, id int64, key string) (postcrud.Value, error) {
	h.metaGets = append(h.metaGets, key)
	return h.meta[key], nil
}

func (h *stubHost) SetMeta(ctx context.Context, id int64, key string, v postcrud.Value) error {
	if h.metaErr != nil {
		return h.metaErr
	}
	h.metaSets[key] = v
	return nil
}

func fullRecord() postcrud.Fields {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := postcrud.DefaultColumns(now)
	rec[postcrud.ColumnTitle] = postcrud.String("Stored title")
	rec[postcrud.ColumnStatus] = postcrud.String("publish")
	return rec
}

func TestItem_SetFieldMarksDirty(t *testing.T) {
	item := postcrud.NewPost(newStubHost())

	values := map[string]postcrud.Value{
		"post_title":   postcrud.String("Hello"),
		"menu_order":   postcrud.Int(3),
		"post_content": postcrud.String("Body"),
	}
	for k, v := range values {
		item.SetField(k, v)
	}

	all := item.Fields().Fields
	dirty := item.UpdatedFields().Fields
	for k, v := range values {
		assert.True(t, v.Equal(all[k]), "fields[%s]", k)
		assert.True(t, v.Equal(dirty[k]), "updatedFields[%s]", k)
	}
	assert.True(t, item.IsDirty())
}

func TestItem_HydratedFieldsAreClean(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()

	item, err := postcrud.LoadPost(context.Background(), host, 7)
	require.NoError(t, err)

	for _, column := range postcrud.HydratedColumns {
		v, err := item.Field(column)
		require.NoError(t, err, column)
		assert.True(t, host.fetch[column].Equal(v), column)
	}
	assert.Equal(t, "Stored title", item.Title())
	assert.True(t, item.UpdatedFields().IsEmpty())
	assert.False(t, item.IsDirty())
}

func TestItem_MissingColumnsHydrateAsNull(t *testing.T) {
	host := newStubHost()
	host.fetch = postcrud.Fields{
		postcrud.ColumnTitle:  postcrud.String("Partial"),
		postcrud.ColumnStatus: postcrud.String("draft"),
	}

	item, err := postcrud.LoadPost(context.Background(), host, 8)
	require.NoError(t, err)

	guid, err := item.Field(postcrud.ColumnGUID)
	require.NoError(t, err)
	assert.True(t, guid.IsNull())
	for _, column := range postcrud.HydratedColumns {
		_, err := item.Field(column)
		assert.NoError(t, err, column)
	}
	assert.Equal(t, "Partial", item.Title())
	assert.True(t, item.UpdatedFields().IsEmpty())
}

func TestItem_ReadDiscardsLocalEdits(t *testing.T) {
	ctx := context.Background()
	host := newStubHost()
	host.fetch = fullRecord()
	host.fetch[postcrud.ColumnTitle] = postcrud.String("from host")

	item := postcrud.NewPost(host)
	item.SetID(5)
	item.SetTitle("local edit")
	item.SetField("custom_column", postcrud.String("kept"))
	require.NoError(t, item.Read(ctx))

	title, err := item.Field(postcrud.ColumnTitle)
	require.NoError(t, err)
	assert.Equal(t, "from host", title.String())

	dirty := item.UpdatedFields().Fields
	_, hasTitle := dirty[postcrud.ColumnTitle]
	assert.False(t, hasTitle)
	assert.Equal(t, "kept", dirty["custom_column"].String())

	for k, v := range item.UpdatedFields().Fields {
		if k == postcrud.KeyUpdateID || k == postcrud.KeyPostType {
			continue
		}
		current, err := item.Field(k)
		require.NoError(t, err, k)
		assert.True(t, v.Equal(current), k)
	}

	require.NoError(t, item.Save(ctx))
	require.Len(t, host.updates, 1)
	_, sentTitle := host.updates[0].Fields[postcrud.ColumnTitle]
	assert.False(t, sentTitle)
}

func TestItem_ReadWithNoLocalEditsIsClean(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()

	item := postcrud.NewPost(host)
	item.SetID(5)
	item.SetTitle("local edit")
	require.NoError(t, item.Read(context.Background()))
	assert.True(t, item.UpdatedFields().IsEmpty())
	assert.False(t, item.IsDirty())
}

func TestItem_UpdatedFieldsAfterOneMutation(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()

	item, err := postcrud.LoadPage(context.Background(), host, 12)
	require.NoError(t, err)

	item.SetTitle("Changed")

	payload := item.UpdatedFields()
	assert.Len(t, payload.Fields, 3)
	assert.Equal(t, "Changed", payload.Fields[postcrud.ColumnTitle].String())
	assert.Equal(t, int64(12), payload.UpdateID())
	assert.Equal(t, "page", payload.PostType())
	_, hasCreateID := payload.Fields[postcrud.KeyCreateID]
	assert.False(t, hasCreateID)
	assert.Empty(t, payload.Meta)
}

func TestItem_FieldsPayloadShape(t *testing.T) {
	item := postcrud.NewPost(newStubHost())
	item.SetTitle("T")

	payload := item.Fields()
	assert.True(t, payload.Fields[postcrud.KeyCreateID].IsNull())
	assert.Equal(t, "post", payload.PostType())
	assert.Nil(t, payload.Meta)

	item.SetMeta("color", postcrud.String("red"))
	payload = item.Fields()
	require.NotNil(t, payload.Meta)
	assert.Equal(t, "red", payload.Meta["color"].String())
	_, hasUpdateID := payload.Fields[postcrud.KeyUpdateID]
	assert.False(t, hasUpdateID)
}

func TestItem_FieldNotSet(t *testing.T) {
	item := postcrud.NewPost(newStubHost())
	_, err := item.Field("post_title")
	assert.ErrorIs(t, err, postcrud.ErrFieldNotFound)
}

func TestItem_SaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	host := newStubHost()
	host.insertID = 42

	item := postcrud.NewPost(host)
	assert.True(t, item.IsNew())
	item.SetTitle("Hello")
	item.SetField("post_content", postcrud.String("B"))
	item.SetField("menu_order", postcrud.Int(1))

	require.NoError(t, item.Save(ctx))
	assert.Equal(t, int64(42), item.ID())
	assert.False(t, item.IsNew())
	require.Len(t, host.inserts, 1)
	assert.Equal(t, "Hello", host.inserts[0].Fields[postcrud.ColumnTitle].String())
	assert.Empty(t, host.updates)

	item.SetTitle("Hello again")
	require.NoError(t, item.Save(ctx))
	assert.Len(t, host.inserts, 1, "second save must not insert")
	require.Len(t, host.updates, 1)
	assert.Equal(t, int64(42), host.updates[0].UpdateID())
	assert.Equal(t, "Hello again", host.updates[0].Fields[postcrud.ColumnTitle].String())
}

func TestItem_SaveWithNothingDirtySkipsHost(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()

	item, err := postcrud.LoadPost(context.Background(), host, 5)
	require.NoError(t, err)

	require.NoError(t, item.Save(context.Background()))
	assert.Empty(t, host.updates)
	assert.Empty(t, host.inserts)
}

func TestItem_CreateFailureKeepsIDUnset(t *testing.T) {
	host := newStubHost()
	host.insertID = 99
	host.insertErr = errors.New("could not insert post into the database")

	item := postcrud.NewPost(host)
	item.SetTitle("x")

	err := item.Save(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, postcrud.ErrHostRejected)

	var itemErr *postcrud.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "create", itemErr.Op)
	assert.Equal(t, int64(0), item.ID())
	assert.True(t, item.IsDirty())
}

func TestItem_CreateZeroIDIsFailure(t *testing.T) {
	host := newStubHost()

	item := postcrud.NewPost(host)
	err := item.Create(context.Background())
	assert.ErrorIs(t, err, postcrud.ErrHostRejected)
	assert.True(t, item.IsNew())
}

func TestItem_UpdateFailureIsDistinct(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()
	host.updateErr = errors.New("invalid post ID")

	item, err := postcrud.LoadPost(context.Background(), host, 3)
	require.NoError(t, err)
	item.SetTitle("new")

	err = item.Save(context.Background())
	var itemErr *postcrud.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "update", itemErr.Op)
	assert.ErrorIs(t, err, postcrud.ErrHostRejected)
	assert.True(t, item.IsDirty(), "failed update keeps fields dirty")
}

func TestItem_LoadNotFoundIsRecoverable(t *testing.T) {
	host := newStubHost()
	host.fetchErr = postcrud.ErrNotFound

	item, err := postcrud.LoadPost(context.Background(), host, 42)
	require.Error(t, err)
	require.NotNil(t, item)
	assert.True(t, postcrud.IsNotFound(err))
	assert.Equal(t, int64(42), item.ID())

	for _, column := range postcrud.HydratedColumns {
		_, ferr := item.Field(column)
		assert.ErrorIs(t, ferr, postcrud.ErrFieldNotFound, column)
	}
}

func TestItem_MetaUsesRequestedKey(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()
	host.meta["size"] = postcrud.String("XL")
	host.meta["key"] = postcrud.String("wrong")

	item, err := postcrud.LoadPost(context.Background(), host, 8)
	require.NoError(t, err)

	item.SetMeta("color", postcrud.String("red"))
	item.SetMeta("key", postcrud.String("staged-key"))

	v, err := item.Meta(context.Background(), "color")
	require.NoError(t, err)
	assert.Equal(t, "red", v.String())
	assert.Empty(t, host.metaGets, "staged meta must not query the host")

	v, err = item.Meta(context.Background(), "size")
	require.NoError(t, err)
	assert.Equal(t, "XL", v.String())
	assert.Equal(t, []string{"size"}, host.metaGets)
}

func TestItem_UpdateWritesMetaIndependently(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()

	item, err := postcrud.LoadPost(context.Background(), host, 9)
	require.NoError(t, err)

	item.SetMeta("color", postcrud.String("red"))
	item.SetMeta("count", postcrud.Int(2))

	require.NoError(t, item.Update(context.Background()))
	assert.Empty(t, host.updates, "no dirty fields, no item update")
	assert.Equal(t, "red", host.metaSets["color"].String())
	assert.True(t, postcrud.Int(2).Equal(host.metaSets["count"]))
	assert.False(t, item.IsDirty())

	item.SetTitle("both")
	item.SetMeta("color", postcrud.String("blue"))
	require.NoError(t, item.Update(context.Background()))
	assert.Len(t, host.updates, 1)
	assert.Equal(t, "blue", host.metaSets["color"].String())
}

func TestItem_UpdateJoinsMetaFailure(t *testing.T) {
	host := newStubHost()
	host.fetch = fullRecord()
	host.metaErr = errors.New("meta table locked")

	item, err := postcrud.LoadPost(context.Background(), host, 9)
	require.NoError(t, err)
	item.SetTitle("t")
	item.SetMeta("color", postcrud.String("red"))

	err = item.Update(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, postcrud.ErrHostRejected)
	assert.Len(t, host.updates, 1, "item update still happens")

	v, err := item.Meta(context.Background(), "color")
	require.NoError(t, err)
	assert.Equal(t, "red", v.String(), "unwritten meta stays staged")
}

func TestItem_DeleteIsTerminal(t *testing.T) {
	ctx := context.Background()
	host := newStubHost()
	host.fetch = fullRecord()

	item, err := postcrud.LoadPost(ctx, host, 4)
	require.NoError(t, err)

	require.NoError(t, item.Delete(ctx))
	assert.Equal(t, []bool{true}, host.deletes, "delete always forces")
	assert.True(t, item.IsDeleted())

	item.SetTitle("after delete")
	assert.ErrorIs(t, item.Save(ctx), postcrud.ErrInvalidState)
	assert.ErrorIs(t, item.Update(ctx), postcrud.ErrInvalidState)
	assert.ErrorIs(t, item.Create(ctx), postcrud.ErrInvalidState)
	assert.ErrorIs(t, item.Delete(ctx), postcrud.ErrInvalidState)
	assert.ErrorIs(t, item.Read(ctx), postcrud.ErrInvalidState)
	assert.Empty(t, host.updates)

	item.SetMeta("color", postcrud.String("red"))
	_, err = item.Meta(ctx, "color")
	assert.ErrorIs(t, err, postcrud.ErrInvalidState)
	_, err = item.Meta(ctx, "size")
	assert.ErrorIs(t, err, postcrud.ErrInvalidState)
	assert.Empty(t, host.metaGets)
}

func TestItem_InvalidState(t *testing.T) {
	ctx := context.Background()

	t.Run("empty post type", func(t *testing.T) {
		item := postcrud.NewItem(newStubHost(), "")
		assert.ErrorIs(t, item.Save(ctx), postcrud.ErrInvalidState)
	})

	t.Run("update without id", func(t *testing.T) {
		item := postcrud.NewPost(newStubHost())
		assert.ErrorIs(t, item.Update(ctx), postcrud.ErrInvalidState)
	})

	t.Run("delete without id", func(t *testing.T) {
		item := postcrud.NewPost(newStubHost())
		assert.ErrorIs(t, item.Delete(ctx), postcrud.ErrInvalidState)
	})

	t.Run("create with id", func(t *testing.T) {
		item := postcrud.NewPost(newStubHost())
		item.SetID(3)
		assert.ErrorIs(t, item.Create(ctx), postcrud.ErrInvalidState)
	})

	t.Run("nil host", func(t *testing.T) {
		item := postcrud.NewPost(nil)
		assert.ErrorIs(t, item.Save(ctx), postcrud.ErrInvalidState)
	})
}

func TestItem_CustomPostType(t *testing.T) {
	host := newStubHost()
	host.insertID = 1

	product := postcrud.PostType("product")
	item := product.New(host)
	item.SetTitle("Widget")
	require.NoError(t, item.Save(context.Background()))

	assert.Equal(t, "product", item.PostType())
	assert.Equal(t, "product", host.inserts[0].PostType())
}

func TestItem_Hooks(t *testing.T) {
	ctx := context.Background()
	host := newStubHost()
	host.insertID = 10

	var created, deleted []int64
	var failedOps []string
	hooks := &postcrud.Hooks{
		BeforeCreate: []postcrud.BeforeWriteHook{
			func(hctx *postcrud.HookContext, item *postcrud.Item, p *postcrud.Payload) error {
				p.Fields[postcrud.ColumnStatus] = postcrud.String("publish")
				return nil
			},
		},
		AfterCreate: []postcrud.AfterWriteHook{
			func(hctx *postcrud.HookContext, item *postcrud.Item) error {
				created = append(created, item.ID())
				return nil
			},
		},
		BeforeUpdate: []postcrud.BeforeWriteHook{
			func(hctx *postcrud.HookContext, item *postcrud.Item, p *postcrud.Payload) error {
				return errors.New("read only")
			},
		},
		AfterDelete: []postcrud.AfterDeleteHook{
			func(hctx *postcrud.HookContext, id int64, postType string) error {
				deleted = append(deleted, id)
				return nil
			},
		},
		OnError: []postcrud.ErrorHook{
			func(hctx *postcrud.HookContext, op string, err error) {
				failedOps = append(failedOps, op)
			},
		},
	}

	item := postcrud.NewPost(host, postcrud.WithHooks(hooks))
	item.SetTitle("hooked")
	require.NoError(t, item.Save(ctx))
	assert.Equal(t, "publish", host.inserts[0].Fields[postcrud.ColumnStatus].String())
	assert.Equal(t, []int64{10}, created)

	item.SetTitle("again")
	assert.Error(t, item.Save(ctx))
	assert.Empty(t, host.updates)
	assert.Equal(t, []string{"update"}, failedOps)

	require.NoError(t, item.Delete(ctx))
	assert.Equal(t, []int64{10}, deleted)
}

func TestItem_ShorthandAccessors(t *testing.T) {
	item := postcrud.NewPage(newStubHost())
	item.SetTitle("Title")
	item.SetContent("Content")
	item.SetExcerpt("Excerpt")
	item.SetStatus("publish")
	item.SetSlug("title")
	item.SetParent(4)

	assert.Equal(t, "Title", item.Title())
	assert.Equal(t, "Content", item.Content())
	assert.Equal(t, "Excerpt", item.Excerpt())
	assert.Equal(t, "publish", item.Status())
	assert.Equal(t, "title", item.Slug())
	assert.Equal(t, int64(4), item.Parent())

	dirty := item.UpdatedFields().Fields
	assert.Equal(t, "title", dirty[postcrud.ColumnName].String())
}
