package contenthash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestStableForIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(a, []byte("identical payload"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("identical payload"), 0o644))

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
	assert.Len(t, da, 64) // hex-encoded sha256
}

func TestDigestDiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(a, []byte("payload one"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("payload two"), 0o644))

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestDigestCachesByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "c.bin")
	require.NoError(t, os.WriteFile(p, []byte("original"), 0o644))

	first, err := Digest(p)
	require.NoError(t, err)

	// Mutate the file on disk; a cached digest must not reflect the change,
	// documenting the cache's "hashed once per process" contract.
	require.NoError(t, os.WriteFile(p, []byte("mutated"), 0o644))
	second, err := Digest(p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDigestMissingFile(t *testing.T) {
	_, err := Digest(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	assert.Error(t, err)
}
