package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	Best string
	Cost uint64
}

func TestCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := New[result](dir)
	require.NoError(t, err)

	t.Run("NotFound", func(t *testing.T) {
		_, found := c.Get("missing")
		assert.False(t, found)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		c.Set("k", result{Best: "p", Cost: 1})
		got, found := c.Get("k")
		require.True(t, found)
		assert.Equal(t, result{Best: "p", Cost: 1}, got)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		require.NoError(t, c.Flush())
		again, err := New[result](dir)
		require.NoError(t, err)
		got, found := again.Get("k")
		require.True(t, found)
		assert.Equal(t, "p", got.Best)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		require.NoError(t, c.InvalidateAll())
		assert.Equal(t, 0, c.Len())

		again, err := New[result](dir)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Len())
	})
}

func TestMaxAge(t *testing.T) {
	c, err := New[result](t.TempDir())
	require.NoError(t, err)

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	c.SetMaxAge(time.Minute)

	c.Set("k", result{Best: "q"})
	now = now.Add(30 * time.Second)
	_, found := c.Get("k")
	assert.True(t, found)

	now = now.Add(time.Minute)
	_, found = c.Get("k")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestFlushOnlyWhenDirty(t *testing.T) {
	dir := t.TempDir()
	c, err := New[result](dir)
	require.NoError(t, err)

	require.NoError(t, c.Flush())
	_, err = os.Stat(filepath.Join(dir, fileName))
	assert.True(t, os.IsNotExist(err))

	c.Set("k", result{})
	require.NoError(t, c.Flush())
	assert.FileExists(t, filepath.Join(dir, fileName))
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("not gob"), 0o644))
	_, err := New[result](dir)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Len(t, Key(), 64)
}
