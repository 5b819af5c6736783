package fsops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveRelocatesFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	dest := filepath.Join(dir, "sub", "dest.jpg")

	require.NoError(t, Move(src, dest))
	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestCopyPreservesContentAndSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	dest := filepath.Join(dir, "sub", "dest.jpg")

	require.NoError(t, Copy(src, dest))
	_, err := os.Stat(src)
	assert.NoError(t, err)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestSymlinkIsRelativeAndResolves(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ALL_PHOTOS", "2023", "img.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o644))

	link := filepath.Join(dir, "Albums", "Vacation", "img.jpg")
	require.NoError(t, Symlink(target, link))

	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)

	raw, err := os.Readlink(link)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(raw), "link target should be relative for output-tree portability")
}

func TestSymlinkNormalizesTrailingSpaceInLinkPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ALL_PHOTOS", "2023", "img.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o644))

	link := filepath.Join(dir, "Albums", "Vacation ", "img.jpg ")
	require.NoError(t, Symlink(target, link))

	normalizedLink := filepath.Join(dir, "Albums", "Vacation", "img.jpg")
	resolved, err := filepath.EvalSymlinks(normalizedLink)
	require.NoError(t, err, "link should land at the trailing-space-trimmed path")
	expected, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestSymlinkReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	targetA := filepath.Join(dir, "a.jpg")
	targetB := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(targetA, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(targetB, []byte("b"), 0o644))

	link := filepath.Join(dir, "link.jpg")
	require.NoError(t, Symlink(targetA, link))
	require.NoError(t, Symlink(targetB, link))

	content, err := os.ReadFile(link)
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))
}

func TestUniqueTargetAvoidsCollision(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "img.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	got := UniqueTarget(dir, "img.jpg", func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})
	assert.Equal(t, filepath.Join(dir, "img (1).jpg"), got)
}
