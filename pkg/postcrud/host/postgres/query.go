package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/tendant/postcrud/pkg/postcrud"
)

func quoted(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgx.Identifier{c}.Sanitize()
	}
	return out
}

func sortedKeys(f postcrud.Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildInsert renders an INSERT for the given columns. Column order is
// sorted so the statement text is stable.
func buildInsert(postType string, cols postcrud.Fields) (string, []any) {
	keys := sortedKeys(cols)
	names := append([]string{"post_type"}, keys...)
	args := make([]any, 0, len(names))
	args = append(args, postType)
	placeholders := make([]string, len(names))
	placeholders[0] = "$1"
	for i, k := range keys {
		args = append(args, cols[k].Interface())
		placeholders[i+1] = fmt.Sprintf("$%d", i+2)
	}

	query := fmt.Sprintf("INSERT INTO posts (%s) VALUES (%s) RETURNING id",
		strings.Join(quoted(names), ", "), strings.Join(placeholders, ", "))
	return query, args
}

// buildUpdate renders an UPDATE of the given columns. An empty postType
// leaves the stored one untouched.
func buildUpdate(id int64, postType string, cols postcrud.Fields) (string, []any) {
	args := []any{id}
	var sets []string
	if postType != "" {
		args = append(args, postType)
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{"post_type"}.Sanitize(), len(args)))
	}
	for _, k := range sortedKeys(cols) {
		args = append(args, cols[k].Interface())
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), len(args)))
	}

	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = $1", strings.Join(sets, ", "))
	return query, args
}
