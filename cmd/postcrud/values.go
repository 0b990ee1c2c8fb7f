package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tendant/postcrud/pkg/postcrud"
)

// parseValue reads a command-line value as a JSON scalar when it is one
// (42, 1.5, true, null, "quoted") and as a plain string otherwise.
func parseValue(raw string) postcrud.Value {
	var v postcrud.Value
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return postcrud.String(raw)
}

// applyAssignments parses each key=value pair and hands it to set.
func applyAssignments(pairs []string, set func(string, postcrud.Value)) error {
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid assignment %q: want key=value", pair)
		}
		set(key, parseValue(raw))
	}
	return nil
}
