package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"orgtrakker/internal/template/schema"
)

var errNonBoolRule = errors.New("rule must evaluate to a boolean")

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.Variable("answers", cel.MapType(cel.StringType, cel.DynType)),
	)
}

func (e *Engine) ruleProgram(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if cached, ok := e.celPrograms.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := e.newCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.celPrograms.Store(expr, program)
	return program, nil
}

// evalRule runs a field's custom rule with the raw value and the whole
// submission in scope.
func (e *Engine) evalRule(r *run, meta *schema.FieldMeta, v any) error {
	program, err := e.ruleProgram(meta.Field.Rule)
	if err != nil {
		return &schema.Error{
			TemplateID: r.idx.Template().ID,
			GroupID:    meta.GroupID,
			FieldID:    meta.FieldID,
			Reason:     fmt.Sprintf("invalid rule: %v", err),
		}
	}
	out, _, err := program.Eval(map[string]any{
		"value":   v,
		"answers": r.flat.Map(),
	})
	if err != nil {
		return fail(meta, RuleCustom, "%s could not be checked: %v", meta.DisplayLabel(), err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return &schema.Error{
			TemplateID: r.idx.Template().ID,
			GroupID:    meta.GroupID,
			FieldID:    meta.FieldID,
			Reason:     errNonBoolRule.Error(),
		}
	}
	if !ok {
		return fail(meta, RuleCustom, "%s is not valid", meta.DisplayLabel())
	}
	return nil
}
