package pathgen

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

func TestTargetDirYearMonthDivision(t *testing.T) {
	ctx := model.MovingContext{OutputDirectory: "/out", DateDivision: model.DivisionYearMonth}
	dir, err := TargetDir(ctx, "", time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC), true, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "ALL_PHOTOS", "2023", "06"), dir)
}

func TestTargetDirDateUnknown(t *testing.T) {
	ctx := model.MovingContext{OutputDirectory: "/out", DateDivision: model.DivisionYearMonthDay}
	dir, err := TargetDir(ctx, "", time.Time{}, false, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "ALL_PHOTOS", "date-unknown"), dir)
}

func TestTargetDirAlbumFoldersAreFlat(t *testing.T) {
	ctx := model.MovingContext{OutputDirectory: "/out", DateDivision: model.DivisionYearMonthDay}
	dir, err := TargetDir(ctx, "Vacation", time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC), true, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "Albums", "Vacation"), dir)
}

func TestTargetDirPartnerSharedPrefix(t *testing.T) {
	ctx := model.MovingContext{OutputDirectory: "/out", DateDivision: model.DivisionYear, DividePartnerShared: true}
	dir, err := TargetDir(ctx, "", time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC), true, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "PARTNER_SHARED", "ALL_PHOTOS", "2023"), dir)
}

func TestTargetDirNoDivisionNoSubdir(t *testing.T) {
	ctx := model.MovingContext{OutputDirectory: "/out", DateDivision: model.DivisionNone}
	dir, err := TargetDir(ctx, "", time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC), true, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "ALL_PHOTOS"), dir)
}
