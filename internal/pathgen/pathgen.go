// Package pathgen implements C8: deriving an entity's output directory
// from its album membership, resolved date, and partner-shared status.
// Grounded on the teacher's generateDestinationPath/
// generateAlbumSymlinkPath, generalized from a fixed year/month/day split
// into the full date_division cascade and the Albums/ALL_PHOTOS branch of
// §4.8.
package pathgen

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
	"github.com/bryanbrunetti/takeout-organizer/internal/pathutil"
)

const dateUnknownSegment = "date-unknown"

// TargetDir returns the directory an entity's primary file belongs in,
// joined under ctx.OutputDirectory, given its album name (empty for year-only
// entities), resolved date, and partner-shared flag (§4.8).
func TargetDir(ctx model.MovingContext, albumName string, dateTaken time.Time, hasDate, partnerShared bool) (string, error) {
	var stem string
	if albumName != "" {
		sanitized, err := pathutil.SanitizeFilename(albumName, pathutil.IsWindowsTarget())
		if err != nil {
			return "", err
		}
		stem = filepath.Join("Albums", sanitized)
	} else {
		stem = filepath.Join("ALL_PHOTOS", dateSubdivision(ctx.DateDivision, dateTaken, hasDate))
	}

	if ctx.DividePartnerShared && partnerShared {
		stem = filepath.Join("PARTNER_SHARED", stem)
	}

	return filepath.Join(ctx.OutputDirectory, stem), nil
}

// dateSubdivision returns the path segment appended under ALL_PHOTOS for
// the configured division depth, substituting date-unknown when the
// entity has no resolved date.
func dateSubdivision(div model.DateDivision, t time.Time, hasDate bool) string {
	if !hasDate {
		return dateUnknownSegment
	}
	switch div {
	case model.DivisionYear:
		return fmt.Sprintf("%04d", t.Year())
	case model.DivisionYearMonth:
		return filepath.Join(fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())))
	case model.DivisionYearMonthDay:
		return filepath.Join(fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())), fmt.Sprintf("%02d", t.Day()))
	default:
		return ""
	}
}
