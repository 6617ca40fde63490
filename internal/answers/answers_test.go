package answers

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedOf(t *testing.T, doc string) *Nested {
	t.Helper()
	n := NewNested()
	require.NoError(t, json.Unmarshal([]byte(doc), n))
	return n
}

func TestFlatText(t *testing.T) {
	flat := FlatOf("name", "Ana", "rank", 2.0)

	assert.Equal(t, "Ana", flat.Text("name"))
	assert.Empty(t, flat.Text("rank"))
	assert.Empty(t, flat.Text("missing"))

	_, isStringer := any(flat).(fmt.Stringer)
	assert.False(t, isStringer, "value lookup must not read as a Stringer")
}

func TestFlatten(t *testing.T) {
	t.Run("nested groups merge in order with later groups winning", func(t *testing.T) {
		n := nestedOf(t, `{"g1":{"a":"1","b":"2"},"g2":{"b":"3","c":null}}`)

		flat := Flatten(FromNested(n))

		assert.Equal(t, []string{"a", "b", "c"}, flat.Keys())
		assert.Equal(t, "3", flat.Text("b"))
		v, ok := flat.Get("c")
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("flat input is returned as an equal copy", func(t *testing.T) {
		in := FlatOf("x", "1", "y", 2.0)
		out := Flatten(FromFlat(in))
		assert.Equal(t, in, out)

		out.Set("z", "new")
		assert.False(t, in.Has("z"))
	})

	t.Run("empty input gives an empty map", func(t *testing.T) {
		assert.Equal(t, 0, Flatten(FromNested(NewNested())).Len())
		assert.Equal(t, 0, Flatten(FromFlat(nil)).Len())
		assert.Equal(t, 0, Flatten(Set{}).Len())
	})

	t.Run("flattening is idempotent", func(t *testing.T) {
		inputs := []Set{
			FromNested(nestedOf(t, `{"g1":{"f1":"Ann","f2":"x"}}`)),
			FromNested(nestedOf(t, `{"g1":{"f1":"a"},"g2":{"f1":"b","f3":[1,2]}}`)),
			FromFlat(FlatOf("f1", "a", "f2", true)),
			FromFlat(NewFlat()),
		}
		for _, in := range inputs {
			once := Flatten(in)
			twice := Flatten(FromFlat(once))
			assert.Equal(t, once, twice)
		}
	})
}

func TestParseLegacy(t *testing.T) {
	t.Run("object first value means nested", func(t *testing.T) {
		s, err := ParseLegacy([]byte(`{"g1":{"f1":"a"},"g2":{"f2":"b"}}`))
		require.NoError(t, err)
		require.True(t, s.IsNested())
		assert.Equal(t, []string{"f1", "f2"}, Flatten(s).Keys())
	})

	t.Run("scalar first value means flat", func(t *testing.T) {
		s, err := ParseLegacy([]byte(`{"f1":"a","f2":{"nested":"kept as value"}}`))
		require.NoError(t, err)
		assert.False(t, s.IsNested())

		flat := Flatten(s)
		assert.Equal(t, map[string]any{"nested": "kept as value"}, mustGet(t, flat, "f2"))
	})

	t.Run("non-object groups are dropped in nested mode", func(t *testing.T) {
		flat, err := FlattenLegacy([]byte(`{"g1":{"f1":"a"},"stray":"x","g2":{"f2":"b"}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"f1", "f2"}, flat.Keys())
	})

	t.Run("empty document", func(t *testing.T) {
		flat, err := FlattenLegacy([]byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, 0, flat.Len())

		flat, err = FlattenLegacy([]byte(`null`))
		require.NoError(t, err)
		assert.Equal(t, 0, flat.Len())
	})

	t.Run("single group matches the group itself", func(t *testing.T) {
		flat, err := FlattenLegacy([]byte(`{"g1":{"b":"2","a":"1"}}`))
		require.NoError(t, err)
		assert.Equal(t, FlatOf("b", "2", "a", "1"), flat)
	})

	t.Run("rejects non-object documents", func(t *testing.T) {
		_, err := ParseLegacy([]byte(`["a"]`))
		assert.Error(t, err)
	})
}

func TestNestedStrictDecoding(t *testing.T) {
	n := NewNested()
	err := json.Unmarshal([]byte(`{"g1":"not a group"}`), n)
	assert.Error(t, err)
}

func TestOrderSurvivesJSON(t *testing.T) {
	n := nestedOf(t, `{"z":{"b":1,"a":2},"a":{"y":"1"}}`)

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":{"b":1,"a":2},"a":{"y":"1"}}`, string(out))
	assert.Equal(t, `{"z":{"b":1,"a":2},"a":{"y":"1"}}`, string(out))
}

func TestMerge(t *testing.T) {
	existing := nestedOf(t, `{"g1":{"f1":"Ann","f2":"hash"},"g2":{"tags":["a","b","c"],"meta":{"x":1,"y":2}}}`)
	patch := nestedOf(t, `{"g1":{"f1":"Anna"},"g2":{"tags":["z"],"meta":{"y":3}},"g3":{"f9":"new"}}`)

	merged := Merge(existing, patch)

	assert.Equal(t, "Anna", mustGetN(t, merged, "g1", "f1"))
	assert.Equal(t, "hash", mustGetN(t, merged, "g1", "f2"))
	assert.Equal(t, []any{"z", "b", "c"}, mustGetN(t, merged, "g2", "tags"))
	assert.Equal(t, map[string]any{"x": 1.0, "y": 3.0}, mustGetN(t, merged, "g2", "meta"))
	assert.Equal(t, "new", mustGetN(t, merged, "g3", "f9"))
	assert.Equal(t, []string{"g1", "g2", "g3"}, merged.GroupIDs())

	assert.Equal(t, "Ann", mustGetN(t, existing, "g1", "f1"), "inputs are not modified")
}

func TestFlatDelete(t *testing.T) {
	f := FlatOf("a", 1, "b", 2, "c", 3)
	f.Delete("b")
	f.Delete("missing")
	assert.Equal(t, []string{"a", "c"}, f.Keys())
	f.Set("b", 4)
	assert.Equal(t, []string{"a", "c", "b"}, f.Keys())
}

func mustGet(t *testing.T, f *Flat, k string) any {
	t.Helper()
	v, ok := f.Get(k)
	require.True(t, ok, "missing key %q", k)
	return v
}

func mustGetN(t *testing.T, n *Nested, g, k string) any {
	t.Helper()
	v, ok := n.Get(g, k)
	require.True(t, ok, "missing %s.%s", g, k)
	return v
}
