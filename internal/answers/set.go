package answers

import "encoding/json"

// Set is an answer document whose shape the caller states explicitly.
type Set struct {
	flat   *Flat
	nested *Nested
}

// FromFlat wraps answers keyed by field id.
func FromFlat(f *Flat) Set {
	if f == nil {
		f = NewFlat()
	}
	return Set{flat: f}
}

// FromNested wraps answers keyed by group then field id.
func FromNested(n *Nested) Set {
	if n == nil {
		n = NewNested()
	}
	return Set{nested: n}
}

func (s Set) IsNested() bool {
	return s.nested != nil
}

// Nested returns the nested form, if that is what the set holds.
func (s Set) Nested() (*Nested, bool) {
	return s.nested, s.nested != nil
}

// IsEmpty reports whether the set has no answers at all.
func (s Set) IsEmpty() bool {
	if s.nested != nil {
		return s.nested.Len() == 0
	}
	return s.flat.Len() == 0
}

// Flatten collapses s into a field-id → value map. Nested groups are merged
// in order with later groups overwriting earlier ones; flat input is copied.
// Flatten(FromFlat(Flatten(x))) equals Flatten(x).
func Flatten(s Set) *Flat {
	if s.nested != nil {
		return s.nested.Flatten()
	}
	if s.flat == nil {
		return NewFlat()
	}
	return s.flat.Clone()
}

func (s Set) MarshalJSON() ([]byte, error) {
	if s.nested != nil {
		return s.nested.MarshalJSON()
	}
	if s.flat == nil {
		return []byte("{}"), nil
	}
	return s.flat.MarshalJSON()
}

// UnmarshalJSON accepts documents of either shape via the legacy heuristic.
func (s *Set) UnmarshalJSON(data []byte) error {
	parsed, err := ParseLegacy(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

var _ json.Marshaler = Set{}
