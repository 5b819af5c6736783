// Package exifio implements the native, in-process EXIF tag reader shared
// by C4 (date extraction) and C7 (EXIF writer: skip-if-already-set GPS
// probe). It wraps dsoprea/go-exif's flat-tag extraction, grounded on
// ccfrost-camflow's go.mod pairing of go-exif with go-jpeg-image-structure
// for exactly this purpose.
package exifio

import (
	"fmt"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// Tags is the flattened tag-name -> string-value view of a file's EXIF IFD,
// the shape both the date extractor and the EXIF writer's skip-check
// consume.
type Tags map[string]string

// ReadTags extracts every EXIF tag from an image's byte content (already
// read by the caller, which may have content-sniffed it first) into a flat
// tag-name -> formatted-value map. Returns an error if no EXIF segment is
// present or it fails to parse — callers treat that as ExifReadFailed and
// fall through to the next date extractor.
func ReadTags(data []byte) (Tags, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return nil, err
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, err
	}

	out := Tags{}
	for _, entry := range entries {
		if entry.TagName == "" {
			continue
		}
		out[entry.TagName] = entry.ValueString
	}
	return out, nil
}

// ReadGPS extracts GPS coordinates from the flat EXIF tag list produced
// alongside ReadTags, returning ok=false if no GPS tags are present. A
// (0,0) fix is still returned — callers apply the "(0,0) is absent" rule
// themselves (§6.1/§8.3).
func ReadGPS(data []byte) (model.Coordinates, bool, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return model.Coordinates{}, false, err
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return model.Coordinates{}, false, err
	}

	var latDeg, lonDeg []exifcommon.Rational
	latRef, lonRef := "N", "E"
	found := false

	for _, entry := range entries {
		switch entry.TagName {
		case "GPSLatitude":
			if rs, ok := entry.Value.([]exifcommon.Rational); ok {
				latDeg = rs
				found = true
			}
		case "GPSLongitude":
			if rs, ok := entry.Value.([]exifcommon.Rational); ok {
				lonDeg = rs
				found = true
			}
		case "GPSLatitudeRef":
			if s, ok := entry.Value.(string); ok {
				latRef = s
			}
		case "GPSLongitudeRef":
			if s, ok := entry.Value.(string); ok {
				lonRef = s
			}
		}
	}

	if !found || len(latDeg) != 3 || len(lonDeg) != 3 {
		return model.Coordinates{}, false, nil
	}

	lat := dmsToDecimal(latDeg)
	lon := dmsToDecimal(lonDeg)
	if latRef == "S" {
		lat = -lat
	}
	if lonRef == "W" {
		lon = -lon
	}

	return model.Coordinates{Latitude: lat, Longitude: lon}, true, nil
}

// dmsToDecimal converts a [degrees, minutes, seconds] rational triple into
// decimal degrees.
func dmsToDecimal(dms []exifcommon.Rational) float64 {
	deg := rationalToFloat(dms[0])
	min := rationalToFloat(dms[1])
	sec := rationalToFloat(dms[2])
	return deg + min/60.0 + sec/3600.0
}

func rationalToFloat(r exifcommon.Rational) float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// FormatError wraps a parse error with context, matching the ExifReadFailed
// kind callers map this onto.
func FormatError(path string, err error) error {
	return fmt.Errorf("exifio: reading %s: %w", path, err)
}
