package postcrud

import (
	"strings"
	"unicode"
)

// Slugify converts a title into a post_name: lower-case ASCII letters and
// digits separated by single dashes. Common Latin accents are folded to their
// base letter; any other character becomes a separator.
func Slugify(title string) string {
	var result strings.Builder
	result.Grow(len(title))

	dash := false
	for _, r := range title {
		r = unicode.ToLower(foldLatin(r))
		if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && result.Len() > 0 {
				result.WriteByte('-')
			}
			dash = false
			result.WriteRune(r)
			continue
		}
		dash = true
	}

	return result.String()
}

// foldLatin strips diacritics from the Latin-1 letters; other runes are
// returned unchanged
func foldLatin(r rune) rune {
	if r < 128 || !unicode.Is(unicode.Latin, r) {
		return r
	}
	switch {
	case r >= 'À' && r <= 'Å':
		return 'A'
	case r >= 'à' && r <= 'å':
		return 'a'
	case r >= 'È' && r <= 'Ë':
		return 'E'
	case r >= 'è' && r <= 'ë':
		return 'e'
	case r >= 'Ì' && r <= 'Ï':
		return 'I'
	case r >= 'ì' && r <= 'ï':
		return 'i'
	case r >= 'Ò' && r <= 'Ö':
		return 'O'
	case r >= 'ò' && r <= 'ö':
		return 'o'
	case r >= 'Ù' && r <= 'Ü':
		return 'U'
	case r >= 'ù' && r <= 'ü':
		return 'u'
	case r == 'Ç':
		return 'C'
	case r == 'ç':
		return 'c'
	case r == 'Ñ':
		return 'N'
	case r == 'ñ':
		return 'n'
	}
	return r
}

// AutoSlug is a BeforeCreate hook that fills post_name from post_title when
// the item has no slug of its own. The slug is set on the item as well as
// the outgoing payload.
func AutoSlug(hctx *HookContext, item *Item, payload *Payload) error {
	if name, _ := payload.Fields[ColumnName].Str(); name != "" {
		return nil
	}
	title, _ := payload.Fields[ColumnTitle].Str()
	if slug := Slugify(title); slug != "" {
		payload.Fields[ColumnName] = String(slug)
		item.SetField(ColumnName, String(slug))
	}
	return nil
}
