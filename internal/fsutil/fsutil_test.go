package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_SameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "movie.mkv")
	dst := filepath.Join(dir, "out", "movie.mkv")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, Move(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source must be gone after move")
}

func TestMove_CreatesDestinationDirs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie.mkv")
	dst := filepath.Join(dir, "deep", "nested", "movie.mkv")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	require.NoError(t, Move(src, dst))
	_, err := os.Stat(dst)
	assert.NoError(t, err)
}

func TestMove_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Move(filepath.Join(dir, "nope.mkv"), filepath.Join(dir, "out.mkv"))
	assert.Error(t, err)
}

func TestCopyFile_PreservesContent(t *testing.T) {
	// The EXDEV fallback path, exercised directly since tests cannot
	// fabricate a cross-device rename portably.
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mkv")
	dst := filepath.Join(dir, "dst.mkv")
	require.NoError(t, os.WriteFile(src, []byte("cross-device payload"), 0o600))

	require.NoError(t, copyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "cross-device payload", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestScratchDir_Unique(t *testing.T) {
	root := t.TempDir()
	a, err := ScratchDir(root)
	require.NoError(t, err)
	b, err := ScratchDir(root)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, dir := range []string{a, b} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
