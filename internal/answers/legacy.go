package answers

import (
	"encoding/json"
	"fmt"
)

// ParseLegacy decodes an answer document whose shape is not declared.
//
// The first value decides: an object means the whole document is nested,
// anything else means it is already flat. In nested mode, group values that
// are not objects are dropped. Empty input yields an empty flat set.
func ParseLegacy(data []byte) (Set, error) {
	type entry struct {
		key string
		raw json.RawMessage
	}
	var entries []entry
	err := decodeObject(data, func(k string, raw json.RawMessage) error {
		entries = append(entries, entry{k, raw})
		return nil
	})
	if err != nil {
		return Set{}, fmt.Errorf("parse answers: %w", err)
	}
	if len(entries) == 0 {
		return FromFlat(NewFlat()), nil
	}

	if !isObject(entries[0].raw) {
		flat := NewFlat()
		for _, e := range entries {
			var v any
			if err := json.Unmarshal(e.raw, &v); err != nil {
				return Set{}, fmt.Errorf("parse answers: field %q: %w", e.key, err)
			}
			flat.Set(e.key, v)
		}
		return FromFlat(flat), nil
	}

	nested := NewNested()
	for _, e := range entries {
		if !isObject(e.raw) {
			continue
		}
		if err := nested.Group(e.key).UnmarshalJSON(e.raw); err != nil {
			return Set{}, fmt.Errorf("parse answers: group %q: %w", e.key, err)
		}
	}
	return FromNested(nested), nil
}

// FlattenLegacy is ParseLegacy followed by Flatten.
func FlattenLegacy(data []byte) (*Flat, error) {
	s, err := ParseLegacy(data)
	if err != nil {
		return nil, err
	}
	return Flatten(s), nil
}
