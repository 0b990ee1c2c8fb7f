package postcrud

// Shorthand accessors for the most common columns. Getters return the
// empty string when the column is unset or not a string.

func (i *Item) SetTitle(title string) { i.SetField(ColumnTitle, String(title)) }

func (i *Item) Title() string { return i.stringField(ColumnTitle) }

func (i *Item) SetContent(content string) { i.SetField(ColumnContent, String(content)) }

func (i *Item) Content() string { return i.stringField(ColumnContent) }

func (i *Item) SetExcerpt(excerpt string) { i.SetField(ColumnExcerpt, String(excerpt)) }

func (i *Item) Excerpt() string { return i.stringField(ColumnExcerpt) }

func (i *Item) SetStatus(status string) { i.SetField(ColumnStatus, String(status)) }

func (i *Item) Status() string { return i.stringField(ColumnStatus) }

// SetSlug sets post_name, the URL slug.
func (i *Item) SetSlug(slug string) { i.SetField(ColumnName, String(slug)) }

func (i *Item) Slug() string { return i.stringField(ColumnName) }

// SetParent sets the parent item id.
func (i *Item) SetParent(id int64) { i.SetField(ColumnParent, Int(id)) }

// Parent returns the parent item id, 0 when unset.
func (i *Item) Parent() int64 {
	v, ok := i.fields[ColumnParent]
	if !ok {
		return 0
	}
	if id, ok := v.Int64(); ok {
		return id
	}
	return 0
}

func (i *Item) stringField(key string) string {
	s, _ := i.fields[key].Str()
	return s
}
