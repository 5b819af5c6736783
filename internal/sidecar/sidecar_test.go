package sidecar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
}

func TestMatchIdentitySupplementalMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "IMG_001.jpg.supplemental-metadata.json")
	got := Match(filepath.Join(dir, "IMG_001.jpg"), Basic)
	assert.Equal(t, filepath.Join(dir, "IMG_001.jpg.supplemental-metadata.json"), got)
}

func TestMatchPlainJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "IMG_002.jpg.json")
	got := Match(filepath.Join(dir, "IMG_002.jpg"), Basic)
	assert.Equal(t, filepath.Join(dir, "IMG_002.jpg.json"), got)
}

func TestMatchExactly51CharBoundary(t *testing.T) {
	dir := t.TempDir()
	// 51-char name + ".json" must be matched by identity before shortening.
	stem := strings.Repeat("a", 51-len(".jpg"))
	name := stem + ".jpg"
	require.Len(t, name, 51)
	writeFile(t, dir, name+".supplemental-metadata.json")
	got := Match(filepath.Join(dir, name), Basic)
	assert.Equal(t, filepath.Join(dir, name+".supplemental-metadata.json"), got)
}

func TestMatchTruncatedSupplemental(t *testing.T) {
	dir := t.TempDir()
	longName := strings.Repeat("b", 40) + ".jpg"
	// The full supplemental name is 71 chars; the truncated ".s.json" form is exactly 51.
	writeFile(t, dir, longName+".s.json")
	got := Match(filepath.Join(dir, longName), Basic)
	assert.Equal(t, filepath.Join(dir, longName+".s.json"), got)
}

func TestMatchNumberedVariant(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "IMG_003(1).json")
	got := Match(filepath.Join(dir, "IMG_003(1).jpg"), Basic)
	assert.Equal(t, filepath.Join(dir, "IMG_003(1).json"), got)
}

func TestMatchExtraSuffixRemoval(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "IMG_004.jpg.supplemental-metadata.json")
	got := Match(filepath.Join(dir, "IMG_004-edited.jpg"), Basic)
	assert.Equal(t, filepath.Join(dir, "IMG_004.jpg.supplemental-metadata.json"), got)
}

func TestMatchNoneFound(t *testing.T) {
	dir := t.TempDir()
	got := Match(filepath.Join(dir, "missing.jpg"), Tryhard)
	assert.Equal(t, "", got)
}

func TestMatchIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "IMG_005.jpg.json")
	first := Match(filepath.Join(dir, "IMG_005.jpg"), Basic)
	require.NotEmpty(t, first)
	second := Match(first, Basic)
	assert.Equal(t, first, second)
}
