package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgtrakker/internal/answers"
)

func labels(m map[string]string) LabelFunc {
	return func(id string) string { return m[id] }
}

func TestDiffNoOp(t *testing.T) {
	snapshots := []*answers.Flat{
		answers.NewFlat(),
		answers.FlatOf("f1", "Ann", "f2", nil, "f3", 3.0),
		answers.FlatOf("f1", []any{"a", "b"}, "f2", map[string]any{"k": true}),
	}
	for _, x := range snapshots {
		assert.Empty(t, Diff(x, x, nil))
		assert.Empty(t, Diff(x, x.Clone(), nil))
	}
}

func TestDiffExcludesPassword(t *testing.T) {
	old := answers.FlatOf("f1", "a")
	new := answers.FlatOf("f1", "b")

	assert.Empty(t, Diff(old, new, labels(map[string]string{"f1": "Password"})))
	assert.Empty(t, Diff(old, new, labels(map[string]string{"f1": " PASSWORD "})))

	t.Run("customized password label excluded by predicate", func(t *testing.T) {
		got := Diff(old, new, labels(map[string]string{"f1": "Secret"}), WithSensitive(func(id string) bool {
			return id == "f1"
		}))
		assert.Empty(t, got)
	})
}

func TestDiffChanges(t *testing.T) {
	old := answers.FlatOf("f1", "Ann", "f2", "", "gone", "bye", "blank", "  ")
	new := answers.FlatOf("f3", "x", "f1", "Anna", "f2", nil)

	got := Diff(old, new, labels(map[string]string{"f1": "First Name"}))

	require.Len(t, got, 3)
	assert.Equal(t, FieldChange{FieldID: "f3", FieldLabel: "F3", OldValue: nil, NewValue: "x", ChangeType: ChangeAdded}, got[0])
	assert.Equal(t, FieldChange{FieldID: "f1", FieldLabel: "First Name", OldValue: "Ann", NewValue: "Anna", ChangeType: ChangeChanged}, got[1])
	assert.Equal(t, FieldChange{FieldID: "gone", FieldLabel: "Gone", OldValue: "bye", NewValue: nil, ChangeType: ChangeRemoved}, got[2])
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"blank string", " \t", ""},
		{"empty array", []any{}, ""},
		{"empty object", map[string]any{}, ""},
		{"integral float", 42.0, "42"},
		{"fraction", 0.5, "0.5"},
		{"bool", true, "true"},
		{"array", []any{"a", 1.0}, `["a",1]`},
		{"object keys sorted", map[string]any{"b": 1.0, "a": 2.0}, `{"a":2,"b":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}

	assert.Empty(t, Diff(answers.FlatOf("n", 42.0), answers.FlatOf("n", "42"), nil), "numbers compare by rendering")
}

func TestFallbackLabel(t *testing.T) {
	assert.Equal(t, "Employment type", FallbackLabel("employment_type"))
	assert.Equal(t, "1762161266516", FallbackLabel("1762161266516"))
	assert.Equal(t, "", FallbackLabel(""))
}
