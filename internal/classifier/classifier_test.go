package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMediaFileRawAllowlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.dng")
	require.NoError(t, os.WriteFile(path, []byte("not really a dng"), 0o644))
	assert.True(t, IsMediaFile(path))
}

func TestIsMediaFileNonMedia(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o644))
	assert.False(t, IsMediaFile(path))
}

func TestDiscoverYearAndAlbum(t *testing.T) {
	root := t.TempDir()
	yearDir := filepath.Join(root, "Photos from 2023")
	albumDir := filepath.Join(root, "Vacation")
	require.NoError(t, os.MkdirAll(yearDir, 0o755))
	require.NoError(t, os.MkdirAll(albumDir, 0o755))

	jpegBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 'J', 'F', 'I', 'F'}
	require.NoError(t, os.WriteFile(filepath.Join(yearDir, "a.jpg"), jpegBytes, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(albumDir, "a.jpg"), jpegBytes, 0o644))

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 2)

	var sawYear, sawAlbum bool
	for _, d := range found {
		if d.Kind == DirYear {
			sawYear = true
			assert.Empty(t, d.Entity.Albums)
		}
		if d.Kind == DirAlbum {
			sawAlbum = true
			_, ok := d.Entity.Albums["Vacation"]
			assert.True(t, ok)
		}
	}
	assert.True(t, sawYear)
	assert.True(t, sawAlbum)
}

func TestDiscoverRepairsMojibakeAlbumName(t *testing.T) {
	root := t.TempDir()
	albumDir := filepath.Join(root, "Cuba¥ol")
	require.NoError(t, os.MkdirAll(albumDir, 0o755))

	jpegBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 'J', 'F', 'I', 'F'}
	require.NoError(t, os.WriteFile(filepath.Join(albumDir, "a.jpg"), jpegBytes, 0o644))

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, ok := found[0].Entity.Albums["Cubañol"]
	assert.True(t, ok, "mojibake yen-sign album name should resolve to Cubañol")
}
