// Package validation checks submitted answers against a template.
//
// Rules are looked up by the semantic role each field was given when the
// schema index was built, so a customized label never changes which rule
// applies. Evaluation walks fields in template order and stops at the first
// failure.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/template/schema"
	"orgtrakker/pkg/requestcontext"
)

// Engine is safe for concurrent use.
type Engine struct {
	logger      *slog.Logger
	byRole      map[schema.Role]validator
	byType      map[string]validator
	newCELEnv   func() (*cel.Env, error)
	celPrograms sync.Map
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds an Engine with the standard rule table.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:    slog.Default(),
		byRole:    roleValidators(),
		byType:    typeValidators(),
		newCELEnv: newRuleEnv,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a successful validation.
type Result struct {
	// Answers holds the normalized submitted values grouped by template
	// group: file fields become null placeholders and passwords are hashed.
	Answers *answers.Nested
	// Values is Answers flattened.
	Values *answers.Flat
	// PasswordChanged is true when a new password was accepted and hashed.
	PasswordChanged bool
}

// Validate checks submitted against idx. The returned error is a *Error,
// a *uniqueness.ConflictError for dangling references, a *schema.Error for
// an unusable field rule, or an infrastructure error from the reference
// checker.
func (e *Engine) Validate(ctx context.Context, idx *schema.Index, submitted answers.Set, opts Options) (*Result, error) {
	if opts.Now.IsZero() {
		opts.Now = requestcontext.Now(ctx)
	}
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}
	if err := checkKnownFields(idx, submitted); err != nil {
		return nil, err
	}

	r := &run{
		ctx:    ctx,
		engine: e,
		idx:    idx,
		flat:   answers.Flatten(submitted),
		opts:   opts,
		out:    answers.NewNested(),
	}
	for _, meta := range idx.Fields() {
		if err := r.field(meta); err != nil {
			if opts.Config.Debug {
				e.logger.DebugContext(ctx, "answer rejected",
					"template_id", idx.Template().ID,
					"field_id", meta.FieldID,
					"role", meta.Role.String(),
					"error", err,
				)
			}
			return nil, err
		}
	}
	return &Result{
		Answers:         r.out,
		Values:          r.out.Flatten(),
		PasswordChanged: r.passwordChanged,
	}, nil
}

func checkKnownFields(idx *schema.Index, submitted answers.Set) error {
	var unknown string
	if nested, ok := submitted.Nested(); ok {
		nested.Range(func(groupID, fieldID string, _ any) bool {
			if _, ok := idx.Lookup(groupID, fieldID); !ok {
				unknown = fieldID
				return false
			}
			return true
		})
	} else {
		answers.Flatten(submitted).Range(func(fieldID string, _ any) bool {
			if _, ok := idx.ByID(fieldID); !ok {
				unknown = fieldID
				return false
			}
			return true
		})
	}
	if unknown != "" {
		return &Error{
			FieldID: unknown,
			Rule:    RuleUnknownField,
			Message: fmt.Sprintf("field %q is not part of this template", unknown),
		}
	}
	return nil
}

// run is the state of one Validate call.
type run struct {
	ctx             context.Context
	engine          *Engine
	idx             *schema.Index
	flat            *answers.Flat
	opts            Options
	out             *answers.Nested
	jobRoles        map[string]struct{}
	passwordChanged bool
}

func (r *run) set(meta *schema.FieldMeta, v any) {
	r.out.Set(meta.GroupID, meta.FieldID, v)
}

func (r *run) field(meta *schema.FieldMeta) error {
	v, present := r.flat.Get(meta.FieldID)
	if meta.IsFile() {
		if present {
			r.set(meta, nil)
		}
		return nil
	}
	if !present || isBlank(v) {
		return r.absent(meta, v, present)
	}

	out := v
	if fn, ok := r.engine.byRole[meta.Role]; ok {
		normalized, err := fn(r, meta, v)
		if err != nil {
			return err
		}
		out = normalized
	} else if fn, ok := r.engine.byType[string(meta.Field.Type)]; ok {
		normalized, err := fn(r, meta, v)
		if err != nil {
			return err
		}
		out = normalized
	}
	if strings.TrimSpace(meta.Field.Rule) != "" {
		if err := r.engine.evalRule(r, meta, v); err != nil {
			return err
		}
	}
	if r.opts.Config.Debug {
		r.engine.logger.DebugContext(r.ctx, "answer accepted",
			"field_id", meta.FieldID,
			"role", meta.Role.String(),
		)
	}
	r.set(meta, out)
	return nil
}

// absent handles a field that was not submitted or was submitted blank.
func (r *run) absent(meta *schema.FieldMeta, v any, present bool) error {
	if r.opts.isUpdate() {
		prev, hadPrev := r.opts.Existing.Get(meta.FieldID)
		hadPrev = hadPrev && !isBlank(prev)
		if meta.Role == schema.RolePassword && hadPrev {
			// blank password on update keeps the stored hash
			if present {
				r.set(meta, prev)
			}
			return nil
		}
		if !present {
			if meta.Field.Required && !hadPrev {
				return required(meta)
			}
			return nil
		}
	}
	if meta.Field.Required {
		return required(meta)
	}
	if present {
		r.set(meta, v)
	}
	return nil
}

func required(meta *schema.FieldMeta) error {
	return &Error{
		FieldID: meta.FieldID,
		Field:   meta.DisplayLabel(),
		Rule:    RuleRequired,
		Message: meta.DisplayLabel() + " is required",
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// FileKey identifies an uploaded file answer.
type FileKey struct {
	GroupID string
	FieldID string
}

// CheckRequiredFiles fails when a required file field has no upload.
// Sub-group file fields are matched by their suffixed flat id.
func CheckRequiredFiles(idx *schema.Index, uploaded []FileKey) error {
	have := make(map[FileKey]struct{}, len(uploaded))
	for _, k := range uploaded {
		have[k] = struct{}{}
	}
	for _, meta := range idx.RequiredFileFields() {
		if _, ok := have[FileKey{GroupID: meta.GroupID, FieldID: meta.FieldID}]; ok {
			continue
		}
		return &Error{
			FieldID: meta.FieldID,
			Field:   meta.DisplayLabel(),
			Rule:    RuleRequiredFile,
			Message: "required file field missing: " + meta.DisplayLabel(),
		}
	}
	return nil
}
