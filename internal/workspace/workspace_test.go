package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go4it/builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_RejectsEscapes(t *testing.T) {
	m := NewManager(t.TempDir())

	for _, id := range []string{"", ".", "..", "../etc", "a/b", `a\b`} {
		_, err := m.Path(id)
		assert.ErrorIs(t, err, types.ErrInvalidInput, "id %q", id)
	}

	dir, err := m.Path("gen-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Root, "gen-1"), dir)
}

func TestCreateAndRemove(t *testing.T) {
	m := NewManager(t.TempDir())

	dir, err := m.Create("gen-1")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, MetaDir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))

	deleted, err := m.Remove("gen-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoDirExists(t, dir)

	deleted, err = m.Remove("gen-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
