package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbrunetti/takeout-organizer/internal/config"
)

// jpegBytes starts with the JPEG/JFIF magic so content sniffing classifies
// the fixture as image/jpeg.
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x00, 'J', 'F', 'I', 'F'}

func writeTakeout(t *testing.T, root string) {
	t.Helper()
	albumDir := filepath.Join(root, "Takeout", "Google Photos", "Vacation 2023")
	require.NoError(t, os.MkdirAll(albumDir, 0o755))

	img := filepath.Join(albumDir, "IMG_001.jpg")
	require.NoError(t, os.WriteFile(img, jpegBytes, 0o644))

	meta := `{"title":"IMG_001.jpg","photoTakenTime":{"timestamp":"1686000000"}}`
	require.NoError(t, os.WriteFile(img+".json", []byte(meta), 0o644))
}

func TestRunEndToEndShortcutMode(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTakeout(t, in)

	cfg := config.NewDefault()
	cfg.InputPath = in
	cfg.OutputPath = out
	cfg.WriteExif = false // no external exiftool binary available in test environment
	cfg.Workers = 2

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 1, res.Counters.DatesExtracted)

	var foundWrite, foundMove bool
	for _, s := range res.Steps {
		if s.StepName == "write_exif" {
			foundWrite = true
			assert.True(t, s.Skipped)
		}
		if s.StepName == "move_files" {
			foundMove = true
			assert.True(t, s.Success)
		}
	}
	assert.True(t, foundWrite)
	assert.True(t, foundMove)

	_, statErr := os.Stat(filepath.Join(out, "ALL_PHOTOS", "2023", "06", "IMG_001.jpg"))
	require.NoError(t, statErr)
}

func TestRunDryRunSkipsMove(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTakeout(t, in)

	cfg := config.NewDefault()
	cfg.InputPath = in
	cfg.OutputPath = out
	cfg.WriteExif = false
	cfg.DryRun = true

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	for _, s := range res.Steps {
		if s.StepName == "move_files" {
			assert.True(t, s.Skipped)
		}
	}
	_, statErr := os.Stat(filepath.Join(out, "ALL_PHOTOS"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunSkipExtrasDropsEditedDerivatives(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTakeout(t, in)

	albumDir := filepath.Join(in, "Takeout", "Google Photos", "Vacation 2023")
	edited := filepath.Join(albumDir, "IMG_001-edited.jpg")
	require.NoError(t, os.WriteFile(edited, jpegBytes, 0o644))

	cfg := config.NewDefault()
	cfg.InputPath = in
	cfg.OutputPath = out
	cfg.WriteExif = false
	cfg.SkipExtras = true

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Counters.ExtrasSkipped)
	_, statErr := os.Stat(filepath.Join(out, "ALL_PHOTOS", "2023", "06", "IMG_001-edited.jpg"))
	assert.True(t, os.IsNotExist(statErr), "the -edited derivative should never reach the output tree")
}

func TestRunTransformPixelMPRenamesBeforeMoving(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	albumDir := filepath.Join(in, "Takeout", "Google Photos", "Vacation 2023")
	require.NoError(t, os.MkdirAll(albumDir, 0o755))
	mp := filepath.Join(albumDir, "PXL_001.MP")
	require.NoError(t, os.WriteFile(mp, []byte("fake-motion-photo"), 0o644))

	cfg := config.NewDefault()
	cfg.InputPath = in
	cfg.OutputPath = out
	cfg.WriteExif = false
	cfg.TransformPixelMP = true

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, res)

	matches, err := filepath.Glob(filepath.Join(out, "ALL_PHOTOS", "*", "PXL_001.mp4"))
	require.NoError(t, err)
	assert.Len(t, matches, 1, "the .MP primary should be renamed to .mp4 before moving")
}

func TestRunLimitFileSizeSkipsOversizedFileForEXIF(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTakeout(t, in)

	cfg := config.NewDefault()
	cfg.InputPath = in
	cfg.OutputPath = out
	cfg.WriteExif = false // no external exiftool binary available in test environment
	cfg.LimitFileSize = true

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestRunKeepInputOperatesOnSiblingCopy(t *testing.T) {
	parent := t.TempDir()
	in := filepath.Join(parent, "takeout")
	out := t.TempDir()
	writeTakeout(t, in)

	cfg := config.NewDefault()
	cfg.InputPath = in
	cfg.OutputPath = out
	cfg.WriteExif = false
	cfg.KeepInput = true

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, res)

	_, statErr := os.Stat(filepath.Join(in, "Takeout", "Google Photos", "Vacation 2023", "IMG_001.jpg"))
	assert.NoError(t, statErr, "the original input file must remain untouched when keep_input is set")

	_, outErr := os.Stat(filepath.Join(out, "ALL_PHOTOS", "2023", "06", "IMG_001.jpg"))
	assert.NoError(t, outErr, "the pipeline should have processed the sibling _tmp copy through to the output tree")
}
