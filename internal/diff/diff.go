// Package diff computes field-level changes between two flat answer
// snapshots for the audit trail.
package diff

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"orgtrakker/internal/answers"
)

// ChangeType classifies a FieldChange.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeChanged ChangeType = "changed"
	ChangeRemoved ChangeType = "removed"
)

// FieldChange is one changed field. OldValue is nil for added fields and
// NewValue is nil for removed ones.
type FieldChange struct {
	FieldID    string     `json:"field_name"`
	FieldLabel string     `json:"field_label"`
	OldValue   any        `json:"old_value"`
	NewValue   any        `json:"new_value"`
	ChangeType ChangeType `json:"change_type"`
}

// LabelFunc resolves a field id to its display label; "" means unknown.
type LabelFunc func(fieldID string) string

type options struct {
	sensitive func(fieldID string) bool
}

// Option tunes Diff.
type Option func(*options)

// WithSensitive excludes fields the predicate flags, in addition to any
// field labelled "password".
func WithSensitive(fn func(fieldID string) bool) Option {
	return func(o *options) {
		o.sensitive = fn
	}
}

// Diff returns changes in new-key order followed by keys only present in old.
// Values are compared after normalization, so nil, blank strings and empty
// collections are all equal to each other.
func Diff(old, new *answers.Flat, labelOf LabelFunc, opts ...Option) []FieldChange {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	label := func(id string) string {
		if labelOf != nil {
			if l := labelOf(id); l != "" {
				return l
			}
		}
		return FallbackLabel(id)
	}
	skip := func(id, lbl string) bool {
		if strings.EqualFold(strings.TrimSpace(lbl), "password") {
			return true
		}
		return o.sensitive != nil && o.sensitive(id)
	}

	var changes []FieldChange
	new.Range(func(id string, nv any) bool {
		lbl := label(id)
		if skip(id, lbl) {
			return true
		}
		ov, existed := old.Get(id)
		if Normalize(ov) == Normalize(nv) {
			return true
		}
		ct := ChangeChanged
		if !existed || ov == nil {
			ct = ChangeAdded
		}
		changes = append(changes, FieldChange{
			FieldID:    id,
			FieldLabel: lbl,
			OldValue:   ov,
			NewValue:   nv,
			ChangeType: ct,
		})
		return true
	})
	old.Range(func(id string, ov any) bool {
		if new.Has(id) {
			return true
		}
		lbl := label(id)
		if skip(id, lbl) || Normalize(ov) == "" {
			return true
		}
		changes = append(changes, FieldChange{
			FieldID:    id,
			FieldLabel: lbl,
			OldValue:   ov,
			ChangeType: ChangeRemoved,
		})
		return true
	})
	return changes
}

// FallbackLabel turns "employment_type" into "Employment type".
func FallbackLabel(fieldID string) string {
	s := strings.ReplaceAll(fieldID, "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
