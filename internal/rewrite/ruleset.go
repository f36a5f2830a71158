package rewrite

import "fmt"

// RuleSet is an ordered, immutable list of uniquely named rules. It is
// built once and shared read-only by any number of runners.
type RuleSet struct {
	rules []Rule
	index map[string]int
}

// NewRuleSet returns a set holding rules in the given order.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	rs := &RuleSet{
		rules: make([]Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	for _, r := range rules {
		if _, dup := rs.index[r.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, r.Name)
		}
		rs.index[r.Name] = len(rs.rules)
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Rules returns a copy of the rules in order.
func (rs *RuleSet) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// Names returns the rule names in order.
func (rs *RuleSet) Names() []string {
	names := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		names[i] = r.Name
	}
	return names
}

// Get looks a rule up by name.
func (rs *RuleSet) Get(name string) (Rule, bool) {
	i, ok := rs.index[name]
	if !ok {
		return Rule{}, false
	}
	return rs.rules[i], true
}

func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Without returns a new set lacking the named rules. Unknown names are
// ignored.
func (rs *RuleSet) Without(names ...string) *RuleSet {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &RuleSet{index: make(map[string]int, len(rs.rules))}
	for _, r := range rs.rules {
		if drop[r.Name] {
			continue
		}
		out.index[r.Name] = len(out.rules)
		out.rules = append(out.rules, r)
	}
	return out
}
