package policy

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/jbattja/fugata-sub001/internal/core"
)

// ErrNoRuleMatch is returned when no delegation rule applies to an identity.
var ErrNoRuleMatch = errors.New("no delegation rule matched")

// Engine decides which scopes a verified dashboard identity may be delegated.
// Rules are evaluated in config order; the first match wins.
type Engine struct {
	rules []core.Rule
}

func New(rules []core.Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate returns the first matching rule and the scope set it grants.
func (e *Engine) Evaluate(identity *core.UpstreamIdentity) (*core.Rule, core.Scopes, error) {
	if identity == nil {
		return nil, nil, fmt.Errorf("%w: identity is required", core.ErrValidation)
	}
	for _, rule := range e.rules {
		matched, err := checkRule(rule, identity)
		if err != nil {
			return nil, nil, fmt.Errorf("evaluating rule '%s': %w", rule.Name, err)
		}
		if !matched {
			continue
		}
		scopes, err := core.ParseScopes(rule.Scopes)
		if err != nil {
			// validated at load time, a failure here is a config bug
			return nil, nil, fmt.Errorf("rule '%s' grants invalid scopes: %w", rule.Name, err)
		}
		return &rule, scopes, nil
	}
	return nil, nil, ErrNoRuleMatch
}

func checkRule(rule core.Rule, identity *core.UpstreamIdentity) (bool, error) {
	if rule.Upstream != identity.Upstream {
		return false, nil
	}
	if rule.CompiledExpr == nil {
		return rule.AllowEmptyExpr, nil
	}

	out, err := expr.Run(rule.CompiledExpr, map[string]any{
		"identity": identity,
	})
	if err != nil {
		return false, err
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to bool: %v", out)
	}
	return matched, nil
}
