// Package exifwriter implements C7: writing resolved date/time and GPS
// metadata back into media files via two paths — an in-process JPEG
// APP1 rewriter for the hot loop, and a batched external-tool path for
// everything else. Grounded on the teacher's updateExifDate/ExifTool
// subprocess plumbing, replacing its single stay_open process with
// barasher/go-exiftool (also used by tupyy-photos-ng for EXIF access)
// plus a raw-exec argument-file fallback for oversized batches, in the
// spirit of the teacher's own exec.Command("exiftool", ...) usage.
package exifwriter

import (
	"fmt"
	"time"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// dateTagLayout is the canonical EXIF date/time string format.
const dateTagLayout = "2006:01:02 15:04:05"

// BuildDateTags produces the full set of date tags written for a resolved
// date: DateTimeOriginal, DateTimeDigitized, DateTime, CreateDate,
// ModifyDate, plus the OffsetTime* triple derived from the date's zone
// offset (§4.7).
func BuildDateTags(t time.Time) map[string]string {
	formatted := t.Format(dateTagLayout)
	offset := formatOffset(t)
	return map[string]string{
		"DateTimeOriginal":  formatted,
		"DateTimeDigitized": formatted,
		"DateTime":          formatted,
		"CreateDate":        formatted,
		"ModifyDate":        formatted,
		"OffsetTimeOriginal":  offset,
		"OffsetTimeDigitized": offset,
		"OffsetTime":          offset,
	}
}

// formatOffset renders t's zone offset as "+HH:MM" / "-HH:MM".
func formatOffset(t time.Time) string {
	_, offsetSec := t.Zone()
	sign := "+"
	if offsetSec < 0 {
		sign = "-"
		offsetSec = -offsetSec
	}
	h := offsetSec / 3600
	m := (offsetSec % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}

// BuildGPSTags produces the GPS tag set written for a resolved coordinate,
// in the decimal-degree plus hemisphere-ref form the external tool expects.
func BuildGPSTags(c model.Coordinates) map[string]string {
	return map[string]string{
		"GPSLatitude":     fmt.Sprintf("%.8f", abs(c.Latitude)),
		"GPSLongitude":    fmt.Sprintf("%.8f", abs(c.Longitude)),
		"GPSLatitudeRef":  c.LatRef(),
		"GPSLongitudeRef": c.LonRef(),
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// tagWeight approximates the per-file cost used to halve batch sizes when
// a file's tag set is heavy (§4.7 adaptive sizing): one unit per tag.
func tagWeight(tags map[string]string) int { return len(tags) }
