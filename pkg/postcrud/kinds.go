package postcrud

import "context"

// PostType is the discriminator that binds an Item to one content-item kind.
// Any non-empty string is a valid kind; Post and Page are the built-in ones.
type PostType string

// Built-in post types.
const (
	PostTypePost PostType = "post"
	PostTypePage PostType = "page"
)

// New returns an unsaved item of this type.
func (t PostType) New(host Host, opts ...Option) *Item {
	return NewItem(host, t, opts...)
}

// Load returns an item of this type read from the host. See LoadItem.
func (t PostType) Load(ctx context.Context, host Host, id int64, opts ...Option) (*Item, error) {
	return LoadItem(ctx, host, t, id, opts...)
}

// NewPost returns an unsaved "post" item.
func NewPost(host Host, opts ...Option) *Item {
	return PostTypePost.New(host, opts...)
}

// LoadPost reads an existing "post" item.
func LoadPost(ctx context.Context, host Host, id int64, opts ...Option) (*Item, error) {
	return PostTypePost.Load(ctx, host, id, opts...)
}

// NewPage returns an unsaved "page" item.
func NewPage(host Host, opts ...Option) *Item {
	return PostTypePage.New(host, opts...)
}

// LoadPage reads an existing "page" item.
func LoadPage(ctx context.Context, host Host, id int64, opts ...Option) (*Item, error) {
	return PostTypePage.Load(ctx, host, id, opts...)
}
