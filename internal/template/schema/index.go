package schema

import (
	"strconv"
	"strings"

	"orgtrakker/internal/template/models"
)

// FieldMeta is a field plus everything derived from its position in the template.
type FieldMeta struct {
	GroupID string
	// FieldID is the flat id: the field id, suffixed "_<n>" inside sub-group n.
	FieldID string
	// SubGroup is the sub-group index, or -1 for direct group fields.
	SubGroup int
	Field    models.Field
	Role     Role
}

// DisplayLabel is the label used in every user-facing message.
func (m *FieldMeta) DisplayLabel() string {
	return m.Field.DisplayLabel()
}

// CanonicalLabel is the semantic label the role was resolved from.
func (m *FieldMeta) CanonicalLabel() string {
	return m.Field.Label
}

func (m *FieldMeta) IsFile() bool {
	return m.Field.Type == models.FieldFile
}

// Index answers field lookups for one template. It is immutable after Build
// and safe for concurrent use.
type Index struct {
	template *models.Template
	ordered  []*FieldMeta
	byGroup  map[string]map[string]*FieldMeta
	byID     map[string]*FieldMeta
	byLabel  map[string]string
	byRole   map[Role][]*FieldMeta
}

// Build indexes tpl in template order. It fails with *Error when a group
// lacks an id or a fields array, a field lacks an id, or two fields would
// flatten to the same id.
func Build(tpl *models.Template) (*Index, error) {
	if tpl == nil {
		return nil, &Error{Reason: "template is nil"}
	}
	idx := &Index{
		template: tpl,
		byGroup:  make(map[string]map[string]*FieldMeta, len(tpl.Groups)),
		byID:     make(map[string]*FieldMeta),
		byLabel:  make(map[string]string),
		byRole:   make(map[Role][]*FieldMeta),
	}
	for gi, g := range tpl.Groups {
		groupID := strings.TrimSpace(g.ID.String())
		if groupID == "" {
			return nil, &Error{TemplateID: tpl.ID, Reason: "group " + strconv.Itoa(gi) + " has no id"}
		}
		if g.Fields == nil {
			return nil, &Error{TemplateID: tpl.ID, GroupID: groupID, Reason: "group has no fields array"}
		}
		if _, dup := idx.byGroup[groupID]; dup {
			return nil, &Error{TemplateID: tpl.ID, GroupID: groupID, Reason: "duplicate group id"}
		}
		idx.byGroup[groupID] = make(map[string]*FieldMeta, len(g.Fields))

		for _, f := range g.Fields {
			if err := idx.add(groupID, f, -1); err != nil {
				return nil, err
			}
		}
		for si, sg := range g.SubGroups {
			for _, f := range sg.Fields {
				if err := idx.add(groupID, f, si); err != nil {
					return nil, err
				}
			}
		}
	}
	return idx, nil
}

func (idx *Index) add(groupID string, f models.Field, subGroup int) error {
	baseID := strings.TrimSpace(f.ID.String())
	if baseID == "" {
		return &Error{TemplateID: idx.template.ID, GroupID: groupID, Reason: "field " + strconv.Quote(f.Label) + " has no id"}
	}
	flatID := baseID
	if subGroup >= 0 {
		flatID = baseID + "_" + strconv.Itoa(subGroup)
	}
	if prev, ok := idx.byID[flatID]; ok {
		return &Error{
			TemplateID: idx.template.ID,
			GroupID:    groupID,
			FieldID:    flatID,
			Reason:     "field id collides with a field in group " + prev.GroupID,
		}
	}
	meta := &FieldMeta{
		GroupID:  groupID,
		FieldID:  flatID,
		SubGroup: subGroup,
		Field:    f,
		Role:     resolveRole(f),
	}
	idx.ordered = append(idx.ordered, meta)
	idx.byGroup[groupID][flatID] = meta
	idx.byID[flatID] = meta
	if _, seen := idx.byLabel[f.Label]; !seen && f.Label != "" {
		idx.byLabel[f.Label] = flatID
	}
	idx.byRole[meta.Role] = append(idx.byRole[meta.Role], meta)
	return nil
}

// Template returns the indexed template.
func (idx *Index) Template() *models.Template {
	return idx.template
}

// Fields returns every field in template order.
func (idx *Index) Fields() []*FieldMeta {
	return idx.ordered
}

// Lookup finds a field by group id and flat field id.
func (idx *Index) Lookup(groupID, fieldID string) (*FieldMeta, bool) {
	g, ok := idx.byGroup[groupID]
	if !ok {
		return nil, false
	}
	m, ok := g[fieldID]
	return m, ok
}

// ByID finds a field by flat id.
func (idx *Index) ByID(fieldID string) (*FieldMeta, bool) {
	m, ok := idx.byID[fieldID]
	return m, ok
}

// FieldIDForLabel returns the first field carrying the canonical label.
func (idx *Index) FieldIDForLabel(label string) (string, bool) {
	id, ok := idx.byLabel[label]
	return id, ok
}

// ByRole returns fields with the given role, in template order.
func (idx *Index) ByRole(r Role) []*FieldMeta {
	return idx.byRole[r]
}

// FirstByRole returns the first field with the given role.
func (idx *Index) FirstByRole(r Role) (*FieldMeta, bool) {
	fs := idx.byRole[r]
	if len(fs) == 0 {
		return nil, false
	}
	return fs[0], true
}

// LabelOf returns the display label for a flat field id, or "" when unknown.
func (idx *Index) LabelOf(fieldID string) string {
	if m, ok := idx.byID[fieldID]; ok {
		return m.DisplayLabel()
	}
	return ""
}

// IsSensitive reports whether a field must never leave the store in clear
// or appear in audit trails.
func (idx *Index) IsSensitive(fieldID string) bool {
	m, ok := idx.byID[fieldID]
	return ok && m.Role == RolePassword
}

// RequiredFileFields lists required file fields, sub-group ids suffixed.
func (idx *Index) RequiredFileFields() []*FieldMeta {
	var out []*FieldMeta
	for _, m := range idx.byRole[RoleFile] {
		if m.Field.Required {
			out = append(out, m)
		}
	}
	return out
}
