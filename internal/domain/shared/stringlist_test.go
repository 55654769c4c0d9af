package shared

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want StringList
	}{
		{name: "empty string", raw: "", want: StringList{}},
		{name: "null literal", raw: "null", want: StringList{}},
		{name: "empty postgres array", raw: "{}", want: StringList{}},
		{name: "empty json array", raw: "[]", want: StringList{}},
		{name: "postgres literal", raw: "{brave,loyal}", want: StringList{"brave", "loyal"}},
		{name: "postgres literal with quotes", raw: `{"quick witted","hot, tempered"}`, want: StringList{"quick witted", "hot, tempered"}},
		{name: "json array", raw: `["fire","water"]`, want: StringList{"fire", "water"}},
		{name: "double encoded json", raw: `"[\"fire\",\"water\"]"`, want: StringList{"fire", "water"}},
		{name: "json array of encoded array", raw: `["[\"a\",\"b\"]"]`, want: StringList{"a", "b"}},
		{name: "json mixed scalars", raw: `["x", 3, true, null]`, want: StringList{"x", "3", "true"}},
		{name: "nested json arrays", raw: `[["a"],["b","a"]]`, want: StringList{"a", "b"}},
		{name: "comma separated", raw: "sword, shield ,  ,bow", want: StringList{"sword", "shield", "bow"}},
		{name: "newline separated", raw: "one\ntwo\n\nthree", want: StringList{"one", "two", "three"}},
		{name: "dedupe keeps first order", raw: `["b","a","b"," a "]`, want: StringList{"b", "a"}},
		{name: "single bare word", raw: "dragon", want: StringList{"dragon"}},
		{name: "semicolons are text", raw: "Magic costs blood; and years of life", want: StringList{"Magic costs blood; and years of life"}},
		{name: "quoted comma separated", raw: `"sword", "bow"`, want: StringList{"sword", "bow"}},
		{name: "json item keeps its quotes", raw: `["\"The Pale King\"","crown"]`, want: StringList{`"The Pale King"`, "crown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStringList(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseStringList(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestStringList_Scan(t *testing.T) {
	t.Run("nil becomes empty list", func(t *testing.T) {
		var l StringList
		require.NoError(t, l.Scan(nil))
		assert.NotNil(t, l)
		assert.Empty(t, l)
	})

	t.Run("bytes from postgres", func(t *testing.T) {
		var l StringList
		require.NoError(t, l.Scan([]byte(`{north,south}`)))
		assert.Equal(t, StringList{"north", "south"}, l)
	})

	t.Run("string slice is normalised", func(t *testing.T) {
		var l StringList
		require.NoError(t, l.Scan([]string{" a", "", "a", "b"}))
		assert.Equal(t, StringList{"a", "b"}, l)
	})

	t.Run("interface slice", func(t *testing.T) {
		var l StringList
		require.NoError(t, l.Scan([]interface{}{"a", 2, nil}))
		assert.Equal(t, StringList{"a", "2"}, l)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var l StringList
		err := l.Scan(42)
		assert.Error(t, err)
	})
}

func TestStringList_Value(t *testing.T) {
	v, err := NewStringList("a b", "c", "c", "").Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a b","c"}`, v)

	empty, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)
}

func TestStringList_JSON(t *testing.T) {
	t.Run("nil marshals as empty array", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Tags StringList `json:"tags"`
		}{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"tags":[]}`, string(data))
	})

	t.Run("unmarshal accepts array and string forms", func(t *testing.T) {
		var payload struct {
			A StringList `json:"a"`
			B StringList `json:"b"`
			C StringList `json:"c"`
		}
		err := json.Unmarshal([]byte(`{"a":["x"," y ","x"],"b":"{p,q}","c":null}`), &payload)
		require.NoError(t, err)
		assert.Equal(t, StringList{"x", "y"}, payload.A)
		assert.Equal(t, StringList{"p", "q"}, payload.B)
		assert.Equal(t, StringList{}, payload.C)
	})
}

func TestStringList_Contains(t *testing.T) {
	l := NewStringList("Elf", "Dwarf")
	assert.True(t, l.Contains("elf"))
	assert.False(t, l.Contains("orc"))
}
