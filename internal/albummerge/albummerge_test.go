package albummerge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRunElectsYearFolderAsCanonical(t *testing.T) {
	root := t.TempDir()
	yearDir := filepath.Join(root, "Photos from 2023")
	albumDir := filepath.Join(root, "Vacation")
	require.NoError(t, os.MkdirAll(yearDir, 0o755))
	require.NoError(t, os.MkdirAll(albumDir, 0o755))

	yearFile := writeFile(t, yearDir, "IMG_001.jpg", "same-bytes")
	albumFile := writeFile(t, albumDir, "IMG_001.jpg", "same-bytes")

	coll := model.NewCollection()
	coll.Add(model.New(yearFile, "", ""))
	coll.Add(model.New(albumFile, "Vacation", albumDir))

	removed, err := Run(coll)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	require.Equal(t, 1, coll.Len())

	merged := coll.At(0)
	assert.Equal(t, yearFile, merged.Primary.SourcePath)
	assert.Contains(t, merged.Albums, "Vacation")
	require.Len(t, merged.Secondary, 1)
	assert.Equal(t, albumFile, merged.Secondary[0].SourcePath)
}

func TestRunAdoptsBetterDateFromAbsorbedEntity(t *testing.T) {
	root := t.TempDir()
	albumA := filepath.Join(root, "AlbumA")
	albumB := filepath.Join(root, "AlbumB")
	require.NoError(t, os.MkdirAll(albumA, 0o755))
	require.NoError(t, os.MkdirAll(albumB, 0o755))

	fa := writeFile(t, albumA, "a.jpg", "same-bytes")
	fb := writeFile(t, albumB, "b.jpg", "same-bytes")

	coll := model.NewCollection()
	coll.Add(model.New(fa, "AlbumA", albumA)) // no date
	withDate := model.With(model.New(fb, "AlbumB", albumB)).Date(time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), model.MethodEXIF).Build()
	coll.Add(withDate)

	removed, err := Run(coll)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	require.Equal(t, 1, coll.Len())

	merged := coll.At(0)
	assert.True(t, merged.HasDate)
	assert.Equal(t, 2022, merged.DateTaken.Year())
	assert.Contains(t, merged.Albums, "AlbumA")
	assert.Contains(t, merged.Albums, "AlbumB")
}

func TestRunLeavesDistinctContentUntouched(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "content-one")
	b := writeFile(t, dir, "b.jpg", "content-two")

	coll := model.NewCollection()
	coll.Add(model.New(a, "", ""))
	coll.Add(model.New(b, "", ""))

	removed, err := Run(coll)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, coll.Len())
}
