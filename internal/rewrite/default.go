package rewrite

import (
	_ "embed"
	"fmt"
)

//go:embed rules.yaml
var defaultRules []byte

// DefaultRules returns the embedded rule file, for writing it out as a
// starting point.
func DefaultRules() []byte {
	return append([]byte(nil), defaultRules...)
}

// Default returns the built-in boolean-algebra rule set: commutativity,
// associativity, identity, annihilation, idempotence, absorption,
// complement, De Morgan, double negation and implication unfolding.
func Default() *RuleSet {
	rs, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("rewrite: embedded rules: %v", err))
	}
	return rs
}
