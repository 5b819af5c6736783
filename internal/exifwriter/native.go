package exifwriter

import (
	"os"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

var jpegParser = jpegstructure.NewJpegMediaParser()

// WriteJPEGNative rewrites path's APP1/EXIF segment in place with dateTags
// and, when gps is non-nil, GPS tags, in a single segment rewrite (§4.7).
// Either argument may be nil/empty to write only the other.
func WriteJPEGNative(path string, dateTags map[string]string, gps *model.Coordinates) error {
	intfc, err := jpegParser.ParseFile(path)
	if err != nil {
		return errs.New(errs.ExifWriteFailed, "exifwriter.native.parse", path, err)
	}
	sl := intfc.(*jpegstructure.SegmentList)

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		im, mapErr := exifcommon.NewIfdMappingWithStandard()
		if mapErr != nil {
			return errs.New(errs.ExifWriteFailed, "exifwriter.native.ifdmap", path, mapErr)
		}
		ti := exif.NewTagIndex()
		rootIb = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	}

	if len(dateTags) > 0 {
		if err := writeDateIfd(rootIb, dateTags); err != nil {
			return errs.New(errs.ExifWriteFailed, "exifwriter.native.date", path, err)
		}
	}
	if gps != nil && !gps.IsZero() {
		if err := writeGPSIfd(rootIb, *gps); err != nil {
			return errs.New(errs.ExifWriteFailed, "exifwriter.native.gps", path, err)
		}
	}

	if err := sl.SetExif(rootIb); err != nil {
		return errs.New(errs.ExifWriteFailed, "exifwriter.native.setexif", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.ExifWriteFailed, "exifwriter.native.create", path, err)
	}
	defer f.Close()

	if err := sl.Write(f); err != nil {
		return errs.New(errs.ExifWriteFailed, "exifwriter.native.write", path, err)
	}
	return nil
}

// exifSubIfdDateFields lists the date tag keys (also the standard tag
// names understood by go-exif's SetStandardWithName) that live in the
// Exif sub-IFD. DateTime is the one date tag that lives in IFD0.
var exifSubIfdDateFields = []string{"DateTimeOriginal", "DateTimeDigitized", "OffsetTimeOriginal", "OffsetTimeDigitized", "OffsetTime"}

func writeDateIfd(rootIb *exif.IfdBuilder, tags map[string]string) error {
	if v, ok := tags["DateTime"]; ok {
		if err := rootIb.SetStandardWithName("DateTime", v); err != nil {
			return err
		}
	}

	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
	if err != nil {
		return err
	}
	for _, name := range exifSubIfdDateFields {
		v, ok := tags[name]
		if !ok || v == "" {
			continue
		}
		if err := exifIb.SetStandardWithName(name, v); err != nil {
			return err
		}
	}
	return nil
}

func writeGPSIfd(rootIb *exif.IfdBuilder, c model.Coordinates) error {
	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/GPS")
	if err != nil {
		return err
	}

	lat := decimalToDMS(absFloat(c.Latitude))
	lon := decimalToDMS(absFloat(c.Longitude))

	if err := gpsIb.SetStandardWithName("GPSLatitude", lat); err != nil {
		return err
	}
	if err := gpsIb.SetStandardWithName("GPSLatitudeRef", c.LatRef()); err != nil {
		return err
	}
	if err := gpsIb.SetStandardWithName("GPSLongitude", lon); err != nil {
		return err
	}
	if err := gpsIb.SetStandardWithName("GPSLongitudeRef", c.LonRef()); err != nil {
		return err
	}
	return nil
}

// decimalToDMS converts a non-negative decimal-degree value into the
// [degrees, minutes, seconds] rational triple EXIF GPS tags require.
func decimalToDMS(deg float64) []exifcommon.Rational {
	d := int(deg)
	minutesFull := (deg - float64(d)) * 60
	m := int(minutesFull)
	secondsFull := (minutesFull - float64(m)) * 60

	const precision = 1000000
	return []exifcommon.Rational{
		{Numerator: uint32(d), Denominator: 1},
		{Numerator: uint32(m), Denominator: 1},
		{Numerator: uint32(secondsFull * precision), Denominator: precision},
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
