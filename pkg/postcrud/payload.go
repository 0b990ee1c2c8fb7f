package postcrud

import (
	"encoding/json"
	"fmt"
)

// Payload keys understood by the host. The create and update payloads name
// the primary key differently and both spellings are kept as the host
// expects them.
const (
	KeyCreateID  = "id"
	KeyUpdateID  = "ID"
	KeyPostType  = "post_type"
	KeyMetaInput = "meta_input"
)

// Payload is a write request sent to the host. Fields carries the columns,
// including the id and post_type entries; Meta is nested under meta_input
// when non-empty.
type Payload struct {
	Fields Fields
	Meta   Fields
}

// IsEmpty reports whether the payload carries nothing to write.
func (p Payload) IsEmpty() bool {
	return len(p.Fields) == 0 && len(p.Meta) == 0
}

// CreateID returns the id carried by a create payload, 0 when unset.
func (p Payload) CreateID() int64 {
	return idFrom(p.Fields, KeyCreateID)
}

// UpdateID returns the primary key carried by an update payload, 0 when unset.
func (p Payload) UpdateID() int64 {
	return idFrom(p.Fields, KeyUpdateID)
}

// PostType returns the post_type entry, empty when absent.
func (p Payload) PostType() string {
	s, _ := p.Fields[KeyPostType].Str()
	return s
}

// Columns returns the payload fields without the id and post_type entries.
func (p Payload) Columns() Fields {
	out := make(Fields, len(p.Fields))
	for k, v := range p.Fields {
		switch k {
		case KeyCreateID, KeyUpdateID, KeyPostType:
			continue
		}
		out[k] = v
	}
	return out
}

func idFrom(f Fields, key string) int64 {
	v, ok := f[key]
	if !ok {
		return 0
	}
	if i, ok := v.Int64(); ok {
		return i
	}
	if fl, ok := v.Float64(); ok {
		return int64(fl)
	}
	return 0
}

// MarshalJSON flattens the payload into the host's wire shape.
func (p Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}
	if len(p.Meta) > 0 {
		out[KeyMetaInput] = p.Meta
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire shape produced by MarshalJSON.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Fields = make(Fields, len(raw))
	p.Meta = nil
	for k, msg := range raw {
		if k == KeyMetaInput {
			var meta Fields
			if err := json.Unmarshal(msg, &meta); err != nil {
				return fmt.Errorf("decode %s: %w", KeyMetaInput, err)
			}
			p.Meta = meta
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("decode field %s: %w", k, err)
		}
		p.Fields[k] = v
	}
	return nil
}
