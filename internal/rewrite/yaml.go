package rewrite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSpec is one entry of a rule file.
type RuleSpec struct {
	Name          string `yaml:"name"`
	LHS           string `yaml:"lhs"`
	RHS           string `yaml:"rhs"`
	Bidirectional bool   `yaml:"bidirectional,omitempty"`
	Description   string `yaml:"description,omitempty"`
}

// RulesConfig is the top-level shape of a rule file:
//
//	rules:
//	  - name: comm-and
//	    lhs: "(* ?a ?b)"
//	    rhs: "(* ?b ?a)"
type RulesConfig struct {
	Rules []RuleSpec `yaml:"rules"`
}

// Load reads a rule file from path.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes a rule file. Bidirectional entries expand to two rules.
func Parse(data []byte) (*RuleSet, error) {
	var cfg RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return cfg.Build()
}

// Build compiles the specs into a rule set.
func (c RulesConfig) Build() (*RuleSet, error) {
	if len(c.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrInvalidRule)
	}
	var rules []Rule
	for i, spec := range c.Rules {
		r, err := ParseRule(spec.Name, spec.LHS, spec.RHS)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		if !spec.Bidirectional {
			rules = append(rules, r)
			continue
		}
		both, err := Bidirectional(r.Name, r.LHS, r.RHS)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		rules = append(rules, both...)
	}
	return NewRuleSet(rules...)
}

// Marshal encodes rs as a rule file with every direction listed
// separately, so Parse(Marshal(rs)) yields the same rules.
func Marshal(rs *RuleSet) ([]byte, error) {
	cfg := RulesConfig{Rules: make([]RuleSpec, 0, rs.Len())}
	for _, r := range rs.rules {
		cfg.Rules = append(cfg.Rules, RuleSpec{
			Name: r.Name,
			LHS:  r.LHS.String(),
			RHS:  r.RHS.String(),
		})
	}
	return yaml.Marshal(cfg)
}
