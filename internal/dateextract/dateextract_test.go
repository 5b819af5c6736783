package dateextract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

func TestExtractFromJSONSidecar(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "IMG_001.jpg")
	require.NoError(t, os.WriteFile(img, []byte("not a real jpeg"), 0o644))
	sidecarJSON := `{"photoTakenTime":{"timestamp":"1686000000"}}`
	require.NoError(t, os.WriteFile(img+".supplemental-metadata.json", []byte(sidecarJSON), 0o644))

	ex := &Extractor{}
	res := ex.Extract(img, false)
	assert.True(t, res.HasDate)
	assert.Equal(t, model.MethodJSON, res.Method)
	assert.Equal(t, int64(1686000000), res.DateTaken.Unix())
}

func TestExtractFromFilenameGuess(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "IMG_20230107_101500.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o644))

	ex := &Extractor{GuessFromName: true}
	res := ex.Extract(img, false)
	require.True(t, res.HasDate)
	assert.Equal(t, model.MethodGuess, res.Method)
	assert.Equal(t, 2023, res.DateTaken.Year())
	assert.Equal(t, time.January, res.DateTaken.Month())
	assert.Equal(t, 7, res.DateTaken.Day())
}

func TestExtractFromFolderYear(t *testing.T) {
	root := t.TempDir()
	yearDir := filepath.Join(root, "Photos from 2019")
	require.NoError(t, os.MkdirAll(yearDir, 0o755))
	img := filepath.Join(yearDir, "mystery.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o644))

	ex := &Extractor{GooglePhotosRoot: root}
	res := ex.Extract(img, false)
	require.True(t, res.HasDate)
	assert.Equal(t, model.MethodFolderYear, res.Method)
	assert.Equal(t, 2019, res.DateTaken.Year())
}

func TestExtractNoneFound(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "mystery.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o644))

	ex := &Extractor{GooglePhotosRoot: root}
	res := ex.Extract(img, false)
	assert.False(t, res.HasDate)
	assert.Equal(t, model.MethodNone, res.Method)
}

func TestDictionarySupplementsOnlyWhenNoSidecar(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o644))

	want := time.Date(2020, 5, 1, 0, 0, 0, 0, time.Local)
	ex := &Extractor{FileDatesDictionary: map[string]time.Time{"a.jpg": want}}
	res := ex.Extract(img, false)
	require.True(t, res.HasDate)
	assert.Equal(t, want, res.DateTaken)
}
