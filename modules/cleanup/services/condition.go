package services

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

var newRuleConditionCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("ctx", cel.MapType(cel.StringType, cel.StringType)))
}

var ruleConditionProgramCache sync.Map

// EvaluateRuleCondition evaluates an applies_if expression from a persisted
// rule set against a per-document context map (doc_type, vendor_id,
// page_count, ...). An empty expression always applies. Compiled programs
// are cached per expression text.
func EvaluateRuleCondition(expr string, docCtx map[string]string) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}

	program, err := loadOrCompileRuleCondition(expr)
	if err != nil {
		return false, err
	}

	if docCtx == nil {
		docCtx = map[string]string{}
	}
	out, _, err := program.Eval(map[string]any{"ctx": docCtx})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("CLEANUP_RULE_CONDITION_NOT_BOOL")
	}
	return v, nil
}

func loadOrCompileRuleCondition(expr string) (cel.Program, error) {
	if cached, ok := ruleConditionProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newRuleConditionCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.New("CLEANUP_RULE_CONDITION_NOT_BOOL")
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	ruleConditionProgramCache.Store(expr, program)
	return program, nil
}
