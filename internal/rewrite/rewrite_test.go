package rewrite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/eqsat/internal/pattern"
)

func TestNewRule(t *testing.T) {
	tests := []struct {
		name    string
		rule    string
		lhs     string
		rhs     string
		wantErr error
	}{
		{name: "valid", rule: "comm", lhs: "(* ?a ?b)", rhs: "(* ?b ?a)"},
		{name: "rhs drops variable", rule: "drop", lhs: "(* ?a false)", rhs: "false"},
		{name: "unbound", rule: "bad", lhs: "(* ?a ?a)", rhs: "(* ?a ?b)", wantErr: ErrUnboundVar},
		{name: "empty name", rule: "  ", lhs: "(~ ?a)", rhs: "?a", wantErr: ErrInvalidRule},
		{name: "bare variable lhs", rule: "any", lhs: "?a", rhs: "(* ?a ?a)", wantErr: ErrInvalidRule},
		{name: "syntax", rule: "s", lhs: "(* ?a", rhs: "?a", wantErr: pattern.ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tt.rule, tt.lhs, tt.rhs)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rule, r.Name)
			assert.Equal(t, tt.lhs, r.LHS.String())
			assert.Equal(t, tt.rhs, r.RHS.String())
		})
	}
}

func TestBidirectional(t *testing.T) {
	rules, err := Bidirectional("dm", pattern.MustParse("(~ (* ?a ?b))"), pattern.MustParse("(+ (~ ?a) (~ ?b))"))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "dm", rules[0].Name)
	assert.Equal(t, "dm-rev", rules[1].Name)
	assert.Equal(t, rules[0].LHS, rules[1].RHS)
	assert.Equal(t, rules[0].RHS, rules[1].LHS)

	_, err = Bidirectional("ann", pattern.MustParse("(* ?a false)"), pattern.MustParse("false"))
	assert.ErrorIs(t, err, ErrUnboundVar, "the reverse direction would invent ?a")
}

func TestRuleSet(t *testing.T) {
	a := MustRule("a", "(~ (~ ?x))", "?x")
	b := MustRule("b", "(* ?x ?x)", "?x")

	rs, err := NewRuleSet(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rs.Names())
	assert.Equal(t, 2, rs.Len())

	got, ok := rs.Get("b")
	require.True(t, ok)
	assert.Equal(t, b, got)
	_, ok = rs.Get("c")
	assert.False(t, ok)

	rules := rs.Rules()
	rules[0] = b
	assert.Equal(t, []string{"a", "b"}, rs.Names(), "Rules returns a copy")

	_, err = NewRuleSet(a, b, a)
	assert.ErrorIs(t, err, ErrDuplicateRule)

	smaller := rs.Without("a", "missing")
	assert.Equal(t, []string{"b"}, smaller.Names())
	assert.Equal(t, 2, rs.Len())
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
rules:
  - name: dn
    lhs: "(~ (~ ?a))"
    rhs: "?a"
  - name: imp
    lhs: "(=> ?a ?b)"
    rhs: "(+ (~ ?a) ?b)"
    bidirectional: true
`)
	rs, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"dn", "imp", "imp-rev"}, rs.Names())
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "empty", data: "rules: []", wantErr: ErrInvalidRule},
		{name: "duplicate", data: `
rules:
  - {name: x, lhs: "(~ ?a)", rhs: "(~ ?a)"}
  - {name: x, lhs: "(* ?a ?b)", rhs: "(* ?b ?a)"}
`, wantErr: ErrDuplicateRule},
		{name: "duplicate through reverse", data: `
rules:
  - {name: x, lhs: "(~ ?a)", rhs: "(~ ?a)", bidirectional: true}
  - {name: x-rev, lhs: "(* ?a ?b)", rhs: "(* ?b ?a)"}
`, wantErr: ErrDuplicateRule},
		{name: "unbound", data: `
rules:
  - {name: x, lhs: "(~ ?a)", rhs: "?b"}
`, wantErr: ErrUnboundVar},
		{name: "bad pattern", data: `
rules:
  - {name: x, lhs: "(xor ?a ?b)", rhs: "?a"}
`, wantErr: pattern.ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := Parse([]byte("rules: [unterminated"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - name: or-false
    lhs: "(+ ?a false)"
    rhs: "?a"
`), 0o644))

	rs, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"or-false"}, rs.Names())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	rs := Default()
	data, err := Marshal(rs)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, rs.Names(), again.Names())
	for _, r := range rs.Rules() {
		got, ok := again.Get(r.Name)
		require.True(t, ok, r.Name)
		assert.Equal(t, r.String(), got.String())
	}
}

func TestDefault(t *testing.T) {
	rs := Default()
	require.Equal(t, 28, rs.Len())

	for _, name := range []string{
		"comm-and", "assoc-or", "assoc-or-rev", "and-true", "or-true",
		"and-idem", "or-absorb", "or-complement", "de-morgan-and-rev",
		"double-neg", "implies-unfold", "implies-unfold-rev", "iff-unfold",
	} {
		_, ok := rs.Get(name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, DefaultRules(), defaultRules)
}

func TestDefaultRulesAreSound(t *testing.T) {
	for _, r := range Default().Rules() {
		t.Run(r.Name, func(t *testing.T) {
			ok, err := r.Sound()
			require.NoError(t, err)
			assert.True(t, ok, "%s", r)
		})
	}
}

func TestSoundRejectsFalseRule(t *testing.T) {
	r := MustRule("wrong", "(=> ?a ?b)", "(=> ?b ?a)")
	ok, err := r.Sound()
	require.NoError(t, err)
	assert.False(t, ok)
}
