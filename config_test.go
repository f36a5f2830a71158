package eqsat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnoverse/eqsat/internal/extract"
	"github.com/gnoverse/eqsat/internal/runner"
	"github.com/gnoverse/eqsat/internal/term"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, DefaultConfigFile, `
limits:
  iterations: 10
  nodes: 500
rules: rules.yaml
cost: depth
workers: 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, runner.Limits{Iterations: 10, Nodes: 500, Time: runner.DefaultTimeLimit}, cfg.Limits)
	assert.Equal(t, "depth", cfg.Cost)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, filepath.Join(dir, "rules.yaml"), cfg.RulesPath())
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown field", content: "limit:\n  nodes: 5\n"},
		{name: "unknown cost", content: "cost: weight\n"},
		{name: "negative limit", content: "limits:\n  nodes: -1\n"},
		{name: "negative workers", content: "workers: -3\n"},
		{name: "bad duration", content: "limits:\n  time: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), "cfg.yaml", tt.content)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEmptyConfig(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Limits, cfg.Limits)
	assert.Equal(t, "size", cfg.Cost)
	assert.Empty(t, cfg.RulesPath())
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	want := DefaultConfig()
	want.Limits.Time = 5 * time.Second
	require.NoError(t, WriteConfig(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "time: 5s")

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want.Limits, got.Limits)
	assert.Equal(t, want.Cost, got.Cost)
	assert.Equal(t, want.Rules, got.Rules)
}

func TestCostByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]extract.CostFunction{
		"":      extract.AstSize{},
		"size":  extract.AstSize{},
		"depth": extract.AstDepth{},
	} {
		got, err := CostByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := CostByName("weight")
	assert.ErrorIs(t, err, ErrUnknownCost)
}

func TestConfigEngine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "rules.yaml", `
rules:
  - name: double-neg
    lhs: "(~ (~ ?a))"
    rhs: "?a"
`)
	path := writeFile(t, dir, DefaultConfigFile, "rules: rules.yaml\nlimits:\n  iterations: 7\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	e, err := cfg.Engine(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"double-neg"}, e.Rules().Names())
	assert.Equal(t, 7, e.Limits().Iterations)

	assert.Equal(t, "p", e.Simplify(term.MustParse("(~ (~ p))")).String())
	// Without idempotence in the rule set the product stays.
	assert.Equal(t, "(* p p)", e.Simplify(term.MustParse("(* p p)")).String())

	e, err = cfg.Engine(nil, WithLimits(runner.Limits{Iterations: 2}))
	require.NoError(t, err)
	assert.Equal(t, 2, e.Limits().Iterations, "extra options win")
}

func TestConfigEngineMissingRules(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Rules = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := cfg.Engine(zap.NewNop())
	assert.Error(t, err)
}
