// Package pathutil implements C1: Takeout root resolution, year-folder
// detection, path normalization, filename sanitization, mojibake repair,
// and the unique-name resolver. Grounded on the teacher
// (bryanbrunetti-takeaway)'s path-joining style, generalized from its
// single-pattern year-folder regex into the full cascade spec.md §4.1
// describes.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
)

var yearFolderRe = regexp.MustCompile(`^Photos from (\d{4})$`)

// IsYearFolder reports whether basename matches "Photos from YYYY" (after
// right-trimming whitespace) and the year is within 1900..currentYear+1.
func IsYearFolder(basename string) (year int, ok bool) {
	trimmed := strings.TrimRight(basename, " \t")
	m := yearFolderRe.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	maxYear := time.Now().Year() + 1
	if y < 1900 || y > maxYear {
		return 0, false
	}
	return y, true
}

// ResolveTakeoutRoot locates the "Google Photos" directory inside an
// arbitrary input path, accepting the three shapes in §4.1: (a) a parent
// containing a case-insensitive "Takeout" subfolder, (b) the Takeout folder
// itself, (c) a directory that already looks like a Google Photos root
// (contains year folders or album folders with media).
func ResolveTakeoutRoot(input string) (string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return "", errs.New(errs.InputNotFound, "ResolveTakeoutRoot", input, err)
	}
	if !info.IsDir() {
		return "", errs.New(errs.PathResolutionFailed, "ResolveTakeoutRoot", input, fmt.Errorf("not a directory"))
	}

	// Shape (a): parent containing a "Takeout" subfolder.
	if takeoutDir, ok := findTakeoutChild(input); ok {
		return googlePhotosWithinTakeout(takeoutDir)
	}

	// Shape (b): input itself is the Takeout folder.
	if looksLikeTakeoutFolder(input) {
		return googlePhotosWithinTakeout(input)
	}

	// Shape (c): input already looks like the Google Photos root.
	if looksLikeGooglePhotosRoot(input) {
		return input, nil
	}

	return "", errs.New(errs.PathResolutionFailed, "ResolveTakeoutRoot", input,
		fmt.Errorf("no recognizable Takeout structure found"))
}

func findTakeoutChild(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(strings.TrimRight(e.Name(), " \t"), "Takeout") {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

func looksLikeTakeoutFolder(dir string) bool {
	return strings.EqualFold(strings.TrimRight(filepath.Base(dir), " \t"), "Takeout")
}

// googlePhotosWithinTakeout returns the single subdirectory of a Takeout
// folder (any language) as the Google Photos root. If there isn't exactly
// one subdirectory, falls back to scanning for one that already looks like
// a Google Photos root.
func googlePhotosWithinTakeout(takeoutDir string) (string, error) {
	entries, err := os.ReadDir(takeoutDir)
	if err != nil {
		return "", errs.New(errs.PathResolutionFailed, "googlePhotosWithinTakeout", takeoutDir, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(takeoutDir, e.Name()))
		}
	}
	if len(dirs) == 1 {
		return dirs[0], nil
	}
	for _, d := range dirs {
		if looksLikeGooglePhotosRoot(d) {
			return d, nil
		}
	}
	return "", errs.New(errs.PathResolutionFailed, "googlePhotosWithinTakeout", takeoutDir,
		fmt.Errorf("expected exactly one Google Photos subdirectory, found %d", len(dirs)))
}

func looksLikeGooglePhotosRoot(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, ok := IsYearFolder(e.Name()); ok {
			return true
		}
		if dirContainsMedia(filepath.Join(dir, e.Name())) {
			return true
		}
	}
	return false
}

func dirContainsMedia(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			return true // presence check only; classifier does the real MIME work
		}
	}
	return false
}

// NormalizeForWrite splits path into segments, right-trims spaces and
// ASCII dots from each non-root segment, replaces empty segments with "_",
// and rejoins with the platform separator. Google Takeout exports commonly
// contain segments ending in spaces (e.g. "Fotos de "); this must run
// before any filesystem call that writes.
func NormalizeForWrite(path string) string {
	volume := filepath.VolumeName(path)
	rest := strings.TrimPrefix(path, volume)
	isAbs := filepath.IsAbs(path)

	parts := strings.Split(rest, string(filepath.Separator))
	for i, p := range parts {
		if p == "" {
			continue
		}
		trimmed := strings.TrimRight(p, " .")
		if trimmed == "" {
			trimmed = "_"
		}
		parts[i] = trimmed
	}

	joined := strings.Join(parts, string(filepath.Separator))
	if isAbs && !strings.HasPrefix(joined, string(filepath.Separator)) {
		joined = string(filepath.Separator) + joined
	}
	return volume + joined
}

var controlAndForbiddenRe = regexp.MustCompile(`[<>:"|?*]`)

var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
}

func init() {
	for i := 1; i <= 9; i++ {
		windowsReservedNames[fmt.Sprintf("COM%d", i)] = true
		windowsReservedNames[fmt.Sprintf("LPT%d", i)] = true
	}
}

// SanitizeFilename replaces "< > : \" | ? *" and ASCII control characters
// with "_", keeping Unicode intact. When targetIsWindows, it additionally
// remaps reserved device names and strips trailing spaces/dots.
func SanitizeFilename(name string, targetIsWindows bool) (string, error) {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20:
			b.WriteByte('_')
		case controlAndForbiddenRe.MatchString(string(r)):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()

	if targetIsWindows {
		ext := filepath.Ext(out)
		stem := strings.TrimSuffix(out, ext)
		if windowsReservedNames[strings.ToUpper(stem)] {
			out = stem + "_file" + ext
		}
		out = strings.TrimRight(out, " .")
	}

	if out == "" {
		return "", errs.New(errs.InvalidPath, "SanitizeFilename", name, fmt.Errorf("sanitization collapsed to empty string"))
	}
	return out, nil
}

// IsWindowsTarget reports whether the running process targets Windows
// semantics for sanitization/link decisions.
func IsWindowsTarget() bool { return runtime.GOOS == "windows" }

// UniqueName returns a path that does not currently exist on disk, trying
// desired first, then "name (1).ext", "name (2).ext", ... The exists
// callback lets callers share one filesystem-stat implementation (or a
// claimed-paths set, for race-free concurrent resolution).
func UniqueName(desired string, exists func(string) bool) string {
	if !exists(desired) {
		return desired
	}
	ext := filepath.Ext(desired)
	stem := strings.TrimSuffix(desired, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

// FileExists is the default exists callback for UniqueName, backed by the
// real filesystem.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// NFC normalizes s to Unicode Normalization Form C, the canonical form used
// for album-name comparison/keying (§9 open question).
func NFC(s string) string {
	return norm.NFC.String(s)
}

// isMojibakeCase reports whether r is uppercase, used by the U+00A5
// surrounding-case heuristic.
func isMojibakeCase(r rune) bool { return unicode.IsUpper(r) }

var cp437FromLatin1 = map[rune]rune{
	0x00A0: 'á',
	0x00A2: 'ó',
	0x00A3: 'ú',
	0x00A4: 'ñ',
	0x00A5: 'Ñ',
}

// RepairMojibake applies the three-step heuristic from §4.1 to names that
// arrived through a ZIP extractor that did not already fix mojibake:
//
//  1. U+00A5 (¥) → Ñ/ñ by surrounding-case.
//  2. Ã/Â markers → re-decode as Latin-1-then-UTF-8, if that removes them.
//  3. U+00A0/U+00A4/¢/£ → small CP437-from-Latin1 table.
func RepairMojibake(name string) string {
	name = repairYenSign(name)
	if strings.ContainsAny(name, "ÃÂ") {
		if repaired, ok := repairLatin1AsUTF8(name); ok {
			name = repaired
		}
	}
	name = repairCP437Table(name)
	return name
}

func repairYenSign(name string) string {
	runes := []rune(name)
	for i, r := range runes {
		if r != 0x00A5 {
			continue
		}
		surroundingUpper := false
		if i > 0 && isMojibakeCase(runes[i-1]) {
			surroundingUpper = true
		}
		if i+1 < len(runes) && isMojibakeCase(runes[i+1]) {
			surroundingUpper = true
		}
		if surroundingUpper {
			runes[i] = 'Ñ'
		} else {
			runes[i] = 'ñ'
		}
	}
	return string(runes)
}

func repairLatin1AsUTF8(name string) (string, bool) {
	bs := make([]byte, 0, len(name))
	for _, r := range name {
		if r > 0xFF {
			return name, false
		}
		bs = append(bs, byte(r))
	}
	if !utf8.Valid(bs) {
		return name, false
	}
	decoded := string(bs)
	if strings.ContainsAny(decoded, "ÃÂ") {
		return name, false // markers didn't disappear
	}
	return decoded, true
}

func repairCP437Table(name string) string {
	if !strings.ContainsAny(name, " ¤¢£") {
		return name
	}
	runes := []rune(name)
	for i, r := range runes {
		if repl, ok := cp437FromLatin1[r]; ok {
			runes[i] = repl
		}
	}
	return string(runes)
}
