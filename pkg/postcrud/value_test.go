package postcrud_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/postcrud/pkg/postcrud"
)

func TestValueOf(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		in   any
		kind postcrud.Kind
	}{
		{"nil", nil, postcrud.KindNull},
		{"string", "a", postcrud.KindString},
		{"bytes", []byte("a"), postcrud.KindString},
		{"int", 3, postcrud.KindInt},
		{"uint32", uint32(3), postcrud.KindInt},
		{"float", 1.5, postcrud.KindFloat},
		{"bool", true, postcrud.KindBool},
		{"time", now, postcrud.KindTime},
		{"nil pointer", (*string)(nil), postcrud.KindNull},
		{"json integer", json.Number("12"), postcrud.KindInt},
		{"json float", json.Number("1.25"), postcrud.KindFloat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := postcrud.ValueOf(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}

	_, err := postcrud.ValueOf(struct{}{})
	assert.Error(t, err)
}

func TestFieldsOf(t *testing.T) {
	published := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fields, err := postcrud.FieldsOf(map[string]any{
		"post_title":  "Hello",
		"post_parent": int64(4),
		"post_date":   published,
		"guid":        nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields["post_title"].String())
	assert.Equal(t, postcrud.KindInt, fields["post_parent"].Kind())
	assert.Equal(t, postcrud.KindTime, fields["post_date"].Kind())
	assert.True(t, fields["guid"].IsNull())

	_, err = postcrud.FieldsOf(map[string]any{"bad": struct{}{}})
	assert.ErrorContains(t, err, "field bad")
}

func TestValueJSON(t *testing.T) {
	t.Run("integral numbers decode as int", func(t *testing.T) {
		var v postcrud.Value
		require.NoError(t, json.Unmarshal([]byte("42"), &v))
		i, ok := v.Int64()
		assert.True(t, ok)
		assert.Equal(t, int64(42), i)
	})

	t.Run("fractional numbers decode as float", func(t *testing.T) {
		var v postcrud.Value
		require.NoError(t, json.Unmarshal([]byte("4.5"), &v))
		assert.Equal(t, postcrud.KindFloat, v.Kind())
	})

	t.Run("null", func(t *testing.T) {
		v := postcrud.String("x")
		require.NoError(t, json.Unmarshal([]byte("null"), &v))
		assert.True(t, v.IsNull())
	})

	t.Run("objects are rejected", func(t *testing.T) {
		var v postcrud.Value
		assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
	})

	t.Run("time encodes as tagged RFC 3339", func(t *testing.T) {
		ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		data, err := json.Marshal(postcrud.Time(ts))
		require.NoError(t, err)
		assert.JSONEq(t, `{"$time":"2024-01-02T03:04:05Z"}`, string(data))
	})

	t.Run("time keeps its kind", func(t *testing.T) {
		ts := time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("X", 3600))
		data, err := json.Marshal(postcrud.Fields{"when": postcrud.Time(ts)})
		require.NoError(t, err)

		var fields postcrud.Fields
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Equal(t, postcrud.KindTime, fields["when"].Kind())
		got, _ := fields["when"].TimeValue()
		assert.True(t, ts.Equal(got))
	})

	t.Run("date-like strings stay strings", func(t *testing.T) {
		var v postcrud.Value
		require.NoError(t, json.Unmarshal([]byte(`"2024-01-02T03:04:05Z"`), &v))
		assert.Equal(t, postcrud.KindString, v.Kind())
	})

	t.Run("malformed tagged time", func(t *testing.T) {
		for _, bad := range []string{`{}`, `{"$time":"yesterday"}`, `{"$time":"2024-01-02T03:04:05Z","x":1}`} {
			var v postcrud.Value
			assert.Error(t, json.Unmarshal([]byte(bad), &v), bad)
		}
	})
}

func TestValueEqual(t *testing.T) {
	assert.True(t, postcrud.Int(1).Equal(postcrud.Int(1)))
	assert.False(t, postcrud.Int(1).Equal(postcrud.Float(1)))
	assert.True(t, postcrud.Null().Equal(postcrud.Value{}))
	assert.False(t, postcrud.String("a").Equal(postcrud.String("b")))
}

func TestEncodeDecodeValue(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 7, time.UTC)
	values := []postcrud.Value{
		postcrud.Null(),
		postcrud.String(""),
		postcrud.String("a:b"),
		postcrud.Int(-9),
		postcrud.Float(0.25),
		postcrud.Bool(false),
		postcrud.Time(ts),
	}
	for _, v := range values {
		decoded, err := postcrud.DecodeValue(postcrud.EncodeValue(v))
		require.NoError(t, err, v.Kind().String())
		assert.True(t, v.Equal(decoded), v.Kind().String())
	}

	for _, bad := range []string{"", "x", "z:1", "i:abc", "t:yesterday"} {
		_, err := postcrud.DecodeValue(bad)
		assert.Error(t, err, bad)
	}
}
