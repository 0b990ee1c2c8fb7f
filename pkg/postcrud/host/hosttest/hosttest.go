// Package hosttest holds a behavioural test suite every postcrud.Host
// implementation is expected to pass.
package hosttest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/postcrud/pkg/postcrud"
)

// Run exercises host through the raw Host interface and through Item.
// newHost must return an empty host.
func Run(t *testing.T, newHost func(t *testing.T) postcrud.Host) {
	t.Run("InsertAndFetch", func(t *testing.T) {
		host := newHost(t)
		ctx := context.Background()

		payload := postcrud.Payload{
			Fields: postcrud.Fields{
				postcrud.KeyCreateID:     postcrud.Null(),
				postcrud.KeyPostType:     postcrud.String("post"),
				postcrud.ColumnTitle:     postcrud.String("Hello"),
				postcrud.ColumnContent:   postcrud.String("Body"),
				postcrud.ColumnMenuOrder: postcrud.Int(2),
			},
			Meta: postcrud.Fields{"color": postcrud.String("red")},
		}
		id, err := host.InsertItem(ctx, payload)
		require.NoError(t, err)
		require.NotZero(t, id)

		rec, err := host.FetchItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Hello", rec[postcrud.ColumnTitle].String())
		assert.Equal(t, "Body", rec[postcrud.ColumnContent].String())
		assert.Equal(t, "2", rec[postcrud.ColumnMenuOrder].String())
		assert.Equal(t, postcrud.StatusDraft, rec[postcrud.ColumnStatus].String())
		assert.NotEmpty(t, rec[postcrud.ColumnGUID].String())

		meta, err := host.GetMeta(ctx, id, "color")
		require.NoError(t, err)
		assert.Equal(t, "red", meta.String())

		missing, err := host.GetMeta(ctx, id, "size")
		require.NoError(t, err)
		assert.True(t, missing.IsNull())
	})

	t.Run("InsertRequiresPostType", func(t *testing.T) {
		host := newHost(t)
		_, err := host.InsertItem(context.Background(), postcrud.Payload{
			Fields: postcrud.Fields{postcrud.ColumnTitle: postcrud.String("x")},
		})
		assert.ErrorIs(t, err, postcrud.ErrHostRejected)
	})

	t.Run("IDsAreDistinct", func(t *testing.T) {
		host := newHost(t)
		ctx := context.Background()
		seen := map[int64]bool{}
		for i := 0; i < 5; i++ {
			id, err := host.InsertItem(ctx, postcrud.Payload{
				Fields: postcrud.Fields{postcrud.KeyPostType: postcrud.String("page")},
			})
			require.NoError(t, err)
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	})

	t.Run("UpdateMerges", func(t *testing.T) {
		host := newHost(t)
		ctx := context.Background()

		id, err := host.InsertItem(ctx, postcrud.Payload{Fields: postcrud.Fields{
			postcrud.KeyPostType:   postcrud.String("post"),
			postcrud.ColumnTitle:   postcrud.String("Old"),
			postcrud.ColumnContent: postcrud.String("Keep"),
		}})
		require.NoError(t, err)

		err = host.UpdateItem(ctx, postcrud.Payload{Fields: postcrud.Fields{
			postcrud.KeyUpdateID: postcrud.Int(id),
			postcrud.KeyPostType: postcrud.String("post"),
			postcrud.ColumnTitle: postcrud.String("New"),
		}})
		require.NoError(t, err)

		rec, err := host.FetchItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "New", rec[postcrud.ColumnTitle].String())
		assert.Equal(t, "Keep", rec[postcrud.ColumnContent].String())
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		host := newHost(t)
		err := host.UpdateItem(context.Background(), postcrud.Payload{Fields: postcrud.Fields{
			postcrud.KeyUpdateID: postcrud.Int(987654),
			postcrud.KeyPostType: postcrud.String("post"),
			postcrud.ColumnTitle: postcrud.String("x"),
		}})
		assert.ErrorIs(t, err, postcrud.ErrNotFound)
	})

	t.Run("UpdateRequiresID", func(t *testing.T) {
		host := newHost(t)
		err := host.UpdateItem(context.Background(), postcrud.Payload{Fields: postcrud.Fields{
			postcrud.ColumnTitle: postcrud.String("x"),
		}})
		assert.ErrorIs(t, err, postcrud.ErrHostRejected)
	})

	t.Run("FetchMissing", func(t *testing.T) {
		host := newHost(t)
		_, err := host.FetchItem(context.Background(), 987654)
		assert.ErrorIs(t, err, postcrud.ErrNotFound)
	})

	t.Run("SoftAndForceDelete", func(t *testing.T) {
		host := newHost(t)
		ctx := context.Background()

		id, err := host.InsertItem(ctx, postcrud.Payload{Fields: postcrud.Fields{
			postcrud.KeyPostType: postcrud.String("post"),
		}})
		require.NoError(t, err)
		require.NoError(t, host.SetMeta(ctx, id, "k", postcrud.String("v")))

		require.NoError(t, host.DeleteItem(ctx, id, false))
		rec, err := host.FetchItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, postcrud.StatusTrash, rec[postcrud.ColumnStatus].String())

		require.NoError(t, host.DeleteItem(ctx, id, true))
		_, err = host.FetchItem(ctx, id)
		assert.ErrorIs(t, err, postcrud.ErrNotFound)
		_, err = host.GetMeta(ctx, id, "k")
		assert.ErrorIs(t, err, postcrud.ErrNotFound)

		assert.ErrorIs(t, host.DeleteItem(ctx, id, true), postcrud.ErrNotFound)
	})

	t.Run("TimesKeepTheirKind", func(t *testing.T) {
		host := newHost(t)
		ctx := context.Background()

		id, err := host.InsertItem(ctx, postcrud.Payload{Fields: postcrud.Fields{
			postcrud.KeyPostType: postcrud.String("post"),
		}})
		require.NoError(t, err)

		rec, err := host.FetchItem(ctx, id)
		require.NoError(t, err)
		for _, column := range []string{postcrud.ColumnDate, postcrud.ColumnDateGMT, postcrud.ColumnModified, postcrud.ColumnModifiedGMT} {
			assert.Equal(t, postcrud.KindTime, rec[column].Kind(), column)
		}

		published := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		require.NoError(t, host.SetMeta(ctx, id, "published_at", postcrud.Time(published)))
		meta, err := host.GetMeta(ctx, id, "published_at")
		require.NoError(t, err)
		require.Equal(t, postcrud.KindTime, meta.Kind())
		got, _ := meta.TimeValue()
		assert.True(t, published.Equal(got))

		item, err := postcrud.LoadPost(ctx, host, id)
		require.NoError(t, err)
		date, err := item.Field(postcrud.ColumnDate)
		require.NoError(t, err)
		assert.Equal(t, postcrud.KindTime, date.Kind())
	})

	t.Run("MetaOnMissingItem", func(t *testing.T) {
		host := newHost(t)
		err := host.SetMeta(context.Background(), 987654, "k", postcrud.String("v"))
		assert.ErrorIs(t, err, postcrud.ErrNotFound)
	})

	t.Run("ItemLifecycle", func(t *testing.T) {
		host := newHost(t)
		ctx := context.Background()

		item := postcrud.NewPost(host)
		item.SetTitle("Hello")
		item.SetStatus("publish")
		item.SetMeta("color", postcrud.String("red"))
		require.NoError(t, item.Save(ctx))
		id := item.ID()
		require.NotZero(t, id)

		loaded, err := postcrud.LoadPost(ctx, host, id)
		require.NoError(t, err)
		assert.Equal(t, "Hello", loaded.Title())
		assert.Equal(t, "publish", loaded.Status())
		assert.False(t, loaded.IsDirty())

		color, err := loaded.Meta(ctx, "color")
		require.NoError(t, err)
		assert.Equal(t, "red", color.String())

		loaded.SetTitle("Edited")
		loaded.SetMeta("size", postcrud.String("XL"))
		require.NoError(t, loaded.Save(ctx))

		again, err := postcrud.LoadPost(ctx, host, id)
		require.NoError(t, err)
		assert.Equal(t, "Edited", again.Title())
		size, err := again.Meta(ctx, "size")
		require.NoError(t, err)
		assert.Equal(t, "XL", size.String())

		require.NoError(t, again.Delete(ctx))
		_, err = postcrud.LoadPost(ctx, host, id)
		assert.True(t, postcrud.IsNotFound(err))
	})
}
