// Package dateextract implements C4: the five-extractor date resolution
// cascade (JSON, EXIF, filename GUESS, JSON_TRYHARD, FOLDER_YEAR), first
// non-null wins, its ordinal becomes the entity's date_accuracy. Grounded
// on the teacher's exifDateTags preference list and parseExifDate/
// parseSidecarDate, generalized to the full five-stage cascade and
// filename-pattern guesser of spec.md §4.4.
package dateextract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bryanbrunetti/takeout-organizer/internal/exifio"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
	"github.com/bryanbrunetti/takeout-organizer/internal/pathutil"
	"github.com/bryanbrunetti/takeout-organizer/internal/sidecar"
)

// exifDateTags is the in-process JPEG reader's tag preference order (§4.4.2).
var exifDateTags = []string{
	"DateTimeOriginal", "CreateDate", "DateTime", "DateTimeDigitized",
}

// ExternalExifReader reads date tags for non-JPEG formats via the external
// tool; injected so this package never imports the exiftool driver
// directly (C4 sits below C7 in the dependency order).
type ExternalExifReader func(path string) (exifio.Tags, error)

// Extractor resolves dates for a media entity against the five-stage
// cascade. GuessFromName gates extractor 3 per ProcessingConfig.
type Extractor struct {
	GuessFromName       bool
	GooglePhotosRoot    string
	FileDatesDictionary map[string]time.Time
	ExternalReader      ExternalExifReader
}

// Result is the outcome of running the full cascade on one entity.
type Result struct {
	DateTaken time.Time
	Method    model.ExtractionMethod
	HasDate   bool
}

// Extract runs the cascade against primaryPath; isJPEG reports whether the
// caller's content sniff found image/jpeg. The folder-year fallback walks
// up from primaryPath's own directory.
func (e *Extractor) Extract(primaryPath string, isJPEG bool) Result {
	if r, ok := e.fromDictionaryOrJSON(primaryPath); ok {
		return r
	}
	if r, ok := e.fromEXIF(primaryPath, isJPEG); ok {
		return r
	}
	if e.GuessFromName {
		if r, ok := e.fromFilenameGuess(primaryPath); ok {
			return r
		}
	}
	if r, ok := e.fromJSONTryhard(primaryPath); ok {
		return r
	}
	if r, ok := e.fromFolderYear(primaryPath); ok {
		return r
	}
	return Result{Method: model.MethodNone}
}

// jsonSidecar mirrors the Google Takeout asset-metadata fields this stage
// reads (§6.1): photoTakenTime.timestamp is the primary date source.
type jsonSidecar struct {
	PhotoTakenTime *timestampField `json:"photoTakenTime"`
	CreationTime   *timestampField `json:"creationTime"`
}

type timestampField struct {
	Timestamp string `json:"timestamp"`
}

func (t *timestampField) time() (time.Time, bool) {
	if t == nil || t.Timestamp == "" {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(t.Timestamp, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).In(time.Local), true
}

// fromDictionaryOrJSON implements extractor 1 (accuracy JSON=1), plus the
// file_dates_dictionary supplement: the dictionary only takes effect when
// no sidecar exists for this file (§4.4 supplemental note, §9 open
// question: supplements, never overrides).
func (e *Extractor) fromDictionaryOrJSON(primaryPath string) (Result, bool) {
	if sc := sidecar.Match(primaryPath, sidecar.Basic); sc != "" {
		if t, ok := parseSidecarDate(sc); ok {
			return Result{DateTaken: t, Method: model.MethodJSON, HasDate: true}, true
		}
		return Result{}, false // SidecarMalformed: non-fatal, fall through
	}

	if e.FileDatesDictionary != nil {
		if t, ok := e.FileDatesDictionary[filepath.Base(primaryPath)]; ok {
			return Result{DateTaken: t, Method: model.MethodJSON, HasDate: true}, true
		}
	}
	return Result{}, false
}

func parseSidecarDate(sidecarPath string) (time.Time, bool) {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return time.Time{}, false
	}
	var sc jsonSidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return time.Time{}, false // SidecarMalformed
	}
	if t, ok := sc.PhotoTakenTime.time(); ok {
		return t, true
	}
	if t, ok := sc.CreationTime.time(); ok {
		return t, true
	}
	return time.Time{}, false
}

// GeoFromSidecar extracts GPS coordinates from the JSON sidecar, treating
// (0,0) as absent (§6.1).
func GeoFromSidecar(primaryPath string) (model.Coordinates, bool) {
	sc := sidecar.Match(primaryPath, sidecar.Basic)
	if sc == "" {
		return model.Coordinates{}, false
	}
	data, err := os.ReadFile(sc)
	if err != nil {
		return model.Coordinates{}, false
	}
	var geo struct {
		GeoData struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geoData"`
	}
	if err := json.Unmarshal(data, &geo); err != nil {
		return model.Coordinates{}, false
	}
	c := model.Coordinates{Latitude: geo.GeoData.Latitude, Longitude: geo.GeoData.Longitude}
	if c.IsZero() {
		return model.Coordinates{}, false
	}
	return c, true
}

// fromEXIF implements extractor 2 (accuracy EXIF=2): in-process JPEG reader
// preferring DateTimeOriginal > CreateDate > DateTime > DateTimeDigitized;
// external-tool reader for everything else.
func (e *Extractor) fromEXIF(primaryPath string, isJPEG bool) (Result, bool) {
	var tags exifio.Tags
	if isJPEG {
		data, err := os.ReadFile(primaryPath)
		if err != nil {
			return Result{}, false
		}
		t, err := exifio.ReadTags(data)
		if err != nil {
			return Result{}, false // ExifReadFailed: fall through
		}
		tags = t
	} else if e.ExternalReader != nil {
		t, err := e.ExternalReader(primaryPath)
		if err != nil {
			return Result{}, false
		}
		tags = t
	} else {
		return Result{}, false
	}

	for _, tagName := range exifDateTags {
		raw, ok := tags[tagName]
		if !ok || raw == "" {
			continue
		}
		if t, ok := parseExifDateString(raw); ok {
			return Result{DateTaken: t, Method: model.MethodEXIF, HasDate: true}, true
		}
	}
	return Result{}, false
}

// parseExifDateString parses the canonical "YYYY:MM:DD HH:MM:SS" format and
// rejects implausible years.
func parseExifDateString(s string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006:01:02 15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	maxYear := time.Now().Year() + 1
	if t.Year() < 1900 || t.Year() > maxYear {
		return time.Time{}, false
	}
	return t, true
}

// filenamePatterns is the ordered list of filename date-guess regexes
// (§4.4.3), each with named groups y,mo,d,h,mi,s (time groups optional).
var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`IMG_(?P<y>\d{4})(?P<mo>\d{2})(?P<d>\d{2})_(?P<h>\d{2})(?P<mi>\d{2})(?P<s>\d{2})`),
	regexp.MustCompile(`IMG-(?P<y>\d{4})(?P<mo>\d{2})(?P<d>\d{2})-WA\d+`),
	regexp.MustCompile(`VID-(?P<y>\d{4})(?P<mo>\d{2})(?P<d>\d{2})-WA\d+`),
	regexp.MustCompile(`VID_(?P<y>\d{4})(?P<mo>\d{2})(?P<d>\d{2})_(?P<h>\d{2})(?P<mi>\d{2})(?P<s>\d{2})`),
	regexp.MustCompile(`(?P<y>\d{4})-(?P<mo>\d{2})-(?P<d>\d{2}) (?P<h>\d{2})\.(?P<mi>\d{2})\.(?P<s>\d{2})`),
	regexp.MustCompile(`(?P<y>\d{4})(?P<mo>\d{2})(?P<d>\d{2})_(?P<h>\d{2})(?P<mi>\d{2})(?P<s>\d{2})`),
	regexp.MustCompile(`Screenshot_(?P<y>\d{4})(?P<mo>\d{2})(?P<d>\d{2})-(?P<h>\d{2})(?P<mi>\d{2})(?P<s>\d{2})`),
	regexp.MustCompile(`Screenshot (?P<y>\d{4})-(?P<mo>\d{2})-(?P<d>\d{2}) at (?P<h>\d{2})\.(?P<mi>\d{2})\.(?P<s>\d{2})`),
	regexp.MustCompile(`signal-(?P<y>\d{4})-(?P<mo>\d{2})-(?P<d>\d{2})-(?P<h>\d{2})-(?P<mi>\d{2})-(?P<s>\d{2})`),
}

// fromFilenameGuess implements extractor 3 (accuracy GUESS=3).
func (e *Extractor) fromFilenameGuess(primaryPath string) (Result, bool) {
	base := filepath.Base(primaryPath)
	for _, re := range filenamePatterns {
		m := re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		names := re.SubexpNames()
		fields := map[string]int{}
		for i, n := range names {
			if n != "" {
				fields[n] = i
			}
		}
		y := atoiGroup(m, fields, "y")
		mo := atoiGroup(m, fields, "mo")
		d := atoiGroup(m, fields, "d")
		h := atoiGroup(m, fields, "h")
		mi := atoiGroup(m, fields, "mi")
		s := atoiGroup(m, fields, "s")
		if y == 0 || mo == 0 || mo > 12 || d == 0 || d > 31 {
			continue
		}
		t := time.Date(y, time.Month(mo), d, h, mi, s, 0, time.Local)
		maxYear := time.Now().Year() + 1
		if t.Year() < 1900 || t.Year() > maxYear {
			continue
		}
		return Result{DateTaken: t, Method: model.MethodGuess, HasDate: true}, true
	}
	return Result{}, false
}

func atoiGroup(m []string, fields map[string]int, name string) int {
	idx, ok := fields[name]
	if !ok || idx >= len(m) || m[idx] == "" {
		return 0
	}
	v, err := strconv.Atoi(m[idx])
	if err != nil {
		return 0
	}
	return v
}

// fromJSONTryhard implements extractor 4 (accuracy JSON_TRYHARD=4): repeats
// C3 in tryhard mode.
func (e *Extractor) fromJSONTryhard(primaryPath string) (Result, bool) {
	sc := sidecar.Match(primaryPath, sidecar.Tryhard)
	if sc == "" {
		return Result{}, false
	}
	t, ok := parseSidecarDate(sc)
	if !ok {
		return Result{}, false
	}
	return Result{DateTaken: t, Method: model.MethodJSONTryhard, HasDate: true}, true
}

var yearFolderNameRe = regexp.MustCompile(`^Photos from (\d{4})$`)

// fromFolderYear implements extractor 5 (accuracy FOLDER_YEAR=5): walk
// ancestors up to the Google Photos root looking for "Photos from YYYY".
func (e *Extractor) fromFolderYear(primaryPath string) (Result, bool) {
	dir := filepath.Dir(primaryPath)
	for {
		base := filepath.Base(dir)
		if _, ok := pathutil.IsYearFolder(base); ok {
			m := yearFolderNameRe.FindStringSubmatch(strings.TrimRight(base, " \t"))
			if m != nil {
				y, err := strconv.Atoi(m[1])
				if err == nil {
					t := time.Date(y, time.January, 1, 0, 0, 0, 0, time.Local)
					return Result{DateTaken: t, Method: model.MethodFolderYear, HasDate: true}, true
				}
			}
		}
		if dir == e.GooglePhotosRoot || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return Result{}, false
}
