package exifwriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

func TestBuildDateTagsPopulatesAllFields(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	ts := time.Date(2023, 6, 5, 21, 20, 0, 0, loc)

	tags := BuildDateTags(ts)
	assert.Equal(t, "2023:06:05 21:20:00", tags["DateTimeOriginal"])
	assert.Equal(t, "2023:06:05 21:20:00", tags["DateTime"])
	assert.Equal(t, "2023:06:05 21:20:00", tags["CreateDate"])
	assert.Equal(t, "+02:00", tags["OffsetTimeOriginal"])
	assert.Equal(t, "+02:00", tags["OffsetTime"])
}

func TestBuildDateTagsNegativeOffset(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, loc)
	tags := BuildDateTags(ts)
	assert.Equal(t, "-05:00", tags["OffsetTime"])
}

func TestBuildGPSTagsHemisphereRefs(t *testing.T) {
	tags := BuildGPSTags(model.Coordinates{Latitude: -33.8688, Longitude: 151.2093})
	assert.Equal(t, "S", tags["GPSLatitudeRef"])
	assert.Equal(t, "E", tags["GPSLongitudeRef"])
	assert.Equal(t, "33.86880000", tags["GPSLatitude"])
}

func TestSkipReasonAVIAlwaysSkipped(t *testing.T) {
	assert.Equal(t, "avi_unsupported", skipReason("clip.avi", "video/x-msvideo"))
}

func TestSkipReasonMismatchDetected(t *testing.T) {
	assert.Equal(t, "content_mime_mismatch", skipReason("photo.jpg", "image/png"))
}

func TestSkipReasonTiffFamilyExempt(t *testing.T) {
	assert.Equal(t, "", skipReason("photo.cr2", "image/tiff"))
}

func TestSkipReasonUnknownExtensionAllowed(t *testing.T) {
	assert.Equal(t, "", skipReason("file.mp", "image/jpeg"))
}

func TestBaseBatchSizeHalvesOnHighTagWeight(t *testing.T) {
	light := baseBatchSize(3)
	heavy := baseBatchSize(8)
	assert.Equal(t, light/2, heavy)
}
