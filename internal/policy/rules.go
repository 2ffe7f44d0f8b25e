package policy

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/jbattja/fugata-sub001/internal/core"
)

// ValidateRules checks delegation rules at config load time: unique names,
// known upstreams, parseable scopes, and compilable expressions. It returns
// the rules with their expressions pre-compiled.
func ValidateRules(rules []core.Rule, knownUpstreams map[string]struct{}) ([]core.Rule, error) {
	seenNames := make(map[string]struct{})
	var validRules []core.Rule

	for i, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("rule #%d missing name", i)
		}
		if _, exists := seenNames[rule.Name]; exists {
			return nil, fmt.Errorf("rule name '%s' is not unique", rule.Name)
		}
		seenNames[rule.Name] = struct{}{}

		if rule.Upstream == "" {
			return nil, fmt.Errorf("rule '%s' missing upstream", rule.Name)
		}
		if _, known := knownUpstreams[rule.Upstream]; !known {
			return nil, fmt.Errorf("rule '%s' references unknown upstream '%s'", rule.Name, rule.Upstream)
		}

		if len(rule.Scopes) == 0 {
			return nil, fmt.Errorf("rule '%s' grants no scopes", rule.Name)
		}
		if _, err := core.ParseScopes(rule.Scopes); err != nil {
			return nil, fmt.Errorf("rule '%s': %w", rule.Name, err)
		}

		if rule.Expr == "" && !rule.AllowEmptyExpr {
			return nil, fmt.Errorf("rule '%s' has no expr and allow_empty is false", rule.Name)
		}
		if rule.Expr != "" {
			out, err := expr.Compile(rule.Expr, expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("compiling expr for rule '%s': %w", rule.Name, err)
			}
			rule.CompiledExpr = out
		}

		validRules = append(validRules, rule)
	}

	return validRules, nil
}
