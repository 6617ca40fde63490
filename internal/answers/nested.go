package answers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Nested is an ordered group-id → Flat map, the stored shape of answers.
type Nested struct {
	keys   []string
	groups map[string]*Flat
}

func NewNested() *Nested {
	return &Nested{groups: make(map[string]*Flat)}
}

// Group returns the group's answers, creating an empty group when absent.
func (n *Nested) Group(groupID string) *Flat {
	if n.groups == nil {
		n.groups = make(map[string]*Flat)
	}
	g, ok := n.groups[groupID]
	if !ok {
		g = NewFlat()
		n.groups[groupID] = g
		n.keys = append(n.keys, groupID)
	}
	return g
}

// Lookup returns an existing group without creating it.
func (n *Nested) Lookup(groupID string) (*Flat, bool) {
	if n == nil {
		return nil, false
	}
	g, ok := n.groups[groupID]
	return g, ok
}

// Set stores a single answer.
func (n *Nested) Set(groupID, fieldID string, v any) {
	n.Group(groupID).Set(fieldID, v)
}

func (n *Nested) Get(groupID, fieldID string) (any, bool) {
	g, ok := n.Lookup(groupID)
	if !ok {
		return nil, false
	}
	return g.Get(fieldID)
}

// GroupIDs returns the group ids in order.
func (n *Nested) GroupIDs() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func (n *Nested) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Range calls fn for every (group, field, value) in order.
func (n *Nested) Range(fn func(groupID, fieldID string, v any) bool) {
	if n == nil {
		return
	}
	for _, gid := range n.keys {
		cont := true
		n.groups[gid].Range(func(k string, v any) bool {
			cont = fn(gid, k, v)
			return cont
		})
		if !cont {
			return
		}
	}
}

// Clone returns a copy whose groups can be mutated independently.
func (n *Nested) Clone() *Nested {
	out := NewNested()
	if n == nil {
		return out
	}
	for _, gid := range n.keys {
		out.groups[gid] = n.groups[gid].Clone()
		out.keys = append(out.keys, gid)
	}
	return out
}

// Flatten merges every group in order; later groups win on collision.
func (n *Nested) Flatten() *Flat {
	out := NewFlat()
	n.Range(func(_, k string, v any) bool {
		out.Set(k, v)
		return true
	})
	return out
}

func (n *Nested) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, gid := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(gid)
		if err != nil {
			return nil, err
		}
		gb, err := n.groups[gid].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(gb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON requires every group value to be an object. Use ParseLegacy
// for documents of unknown shape.
func (n *Nested) UnmarshalJSON(data []byte) error {
	*n = Nested{groups: make(map[string]*Flat)}
	return decodeObject(data, func(gid string, raw json.RawMessage) error {
		if !isObject(raw) {
			return fmt.Errorf("group %q: answers must be an object", gid)
		}
		g := n.Group(gid)
		return g.UnmarshalJSON(raw)
	})
}
