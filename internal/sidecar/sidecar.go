// Package sidecar implements C3: the ordered cascade of filename-
// normalization strategies that map a media filename to its JSON sidecar.
// Grounded on the teacher's findSidecarFile/findSidecarWithPrefixMatching
// (a numbered-suffix regex cascade plus progressive-prefix matching),
// generalized into the full basic/tryhard strategy list of spec.md §4.3.
package sidecar

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bryanbrunetti/takeout-organizer/internal/pathutil"
)

// Mode selects which strategy cascade to run.
type Mode int

const (
	Basic Mode = iota
	Tryhard
)

// EXTRA_FORMATS is the enumerated list of known trailing "extra"/"edited"
// suffixes Google Takeout appends to derived media, across locales.
var EXTRA_FORMATS = []string{
	"-edited", "-edytowane", "-bearbeitet", "-modificato", "-modifié",
	"-editado", "-bewerkt", "-redigert", "-ar", "-bearbejdet",
	"-muokattu", "-編集済み", "-수정됨", "-editat",
}

const maxSupplementalLen = 51

// IsExtraFormat reports whether name's stem (ignoring a trailing "(N)")
// ends with a known EXTRA_FORMATS suffix, used by --skip-extras to drop
// edited derivatives after discovery (§6.4).
func IsExtraFormat(name string) bool {
	_, ok := removeExtraSuffix(name, false)
	return ok
}

var numberedSuffixRe = regexp.MustCompile(`^(.*)\((\d+)\)$`)

// Match returns the sidecar path for media, or "" if none of the
// strategies for the given mode produce an existing file.
func Match(mediaPath string, mode Mode) string {
	dir := filepath.Dir(mediaPath)
	base := filepath.Base(mediaPath)

	for _, processed := range strategyNames(base, mode) {
		if found := tryCandidates(dir, processed); found != "" {
			return found
		}
	}
	return ""
}

// tryCandidates runs the five candidate-path checks from §4.3 against one
// processed_name, in order, returning the first that exists on disk.
func tryCandidates(dir, processedName string) string {
	// 1. <processed_name>.supplemental-metadata.json
	if p := existsJoin(dir, processedName+".supplemental-metadata.json"); p != "" {
		return p
	}

	// 2. length-truncated variants of the supplemental-metadata suffix.
	full := processedName + ".supplemental-metadata.json"
	if len(full) > maxSupplementalLen {
		const suffix = "supplemental-metadata"
		for cut := len(suffix) - 1; cut >= 1; cut-- {
			candidate := processedName + "." + suffix[:cut] + ".json"
			if len(candidate) > maxSupplementalLen {
				continue
			}
			if p := existsJoin(dir, candidate); p != "" {
				return p
			}
		}
	}

	// 3. numbered variants for name(N).ext.
	if base, n, ok := splitNumberedSuffix(processedName); ok {
		if p := existsJoin(dir, base+".supplemental-metadata("+n+").json"); p != "" {
			return p
		}
		if p := existsJoin(dir, base+"("+n+").supplemental-metadata.json"); p != "" {
			return p
		}
	}

	// 4. <processed_name>.json
	if p := existsJoin(dir, processedName+".json"); p != "" {
		return p
	}

	// 5. numbered (N) variant of step 4.
	if base, n, ok := splitNumberedSuffix(processedName); ok {
		if p := existsJoin(dir, base+"("+n+").json"); p != "" {
			return p
		}
	}

	return ""
}

func existsJoin(dir, name string) string {
	p := filepath.Join(dir, name)
	if pathutil.FileExists(p) {
		return p
	}
	return ""
}

// splitNumberedSuffix recognizes a trailing "(N)" in a name (stem or full
// name, extension-agnostic) and returns the prefix and the digits.
func splitNumberedSuffix(name string) (base string, n string, ok bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	m := numberedSuffixRe.FindStringSubmatch(stem)
	if m == nil {
		return "", "", false
	}
	return m[1] + ext, m[2], true
}

// strategyNames returns, in cascade order, the processed-name candidates
// the basic (and for Tryhard, also the tryhard-only) strategies produce.
func strategyNames(base string, mode Mode) []string {
	var names []string

	// S1 Identity.
	names = append(names, base)

	// S2 Length-shorten.
	if len(base)+len(".json") > maxSupplementalLen {
		cut := maxSupplementalLen - len(".json")
		if cut > 0 && cut < len(base) {
			names = append(names, base[:cut])
		}
	}

	// S3 Bracket-swap: "name(N).ext" -> "name.ext(N)".
	if swapped, ok := bracketSwap(base); ok {
		names = append(names, swapped)
	}

	// S4 Drop-extension.
	ext := filepath.Ext(base)
	stemNoExt := strings.TrimSuffix(base, ext)
	if ext != "" {
		names = append(names, stemNoExt)
	}

	// S5 Remove-complete-extra-suffix (NFC-normalized).
	if stripped, ok := removeExtraSuffix(pathutil.NFC(base), false); ok {
		names = append(names, stripped)
	}

	// S6 Motion photo .MP -> .MP.jpg.
	if strings.EqualFold(ext, ".mp") {
		names = append(names, stemNoExt+".MP.jpg")
	}

	if mode == Tryhard {
		// S7 Cross-extension remap to .HEIC.
		switch strings.ToLower(ext) {
		case ".mp4", ".mov", ".jpg", ".jpeg", ".mp", ".mv":
			names = append(names, stemNoExt+".HEIC")
		}

		// S8 Partial-extra-suffix removal (truncated prefixes of known suffixes).
		names = append(names, partialExtraSuffixRemovals(base)...)

		// S9 Partial-extra plus extension restoration.
		for _, partial := range partialExtraSuffixRemovals(stemNoExt) {
			names = append(names, partial+ext)
		}

		// S10 Edge-case suffix removal: heuristic trailing-run trim when no
		// dictionary entry matched.
		if _, matched := removeExtraSuffix(pathutil.NFC(base), false); !matched {
			if heuristic, ok := edgeCaseSuffixTrim(stemNoExt); ok {
				names = append(names, heuristic+ext)
			}
		}
	}

	return names
}

// bracketSwap implements S3: a trailing "(N)." in the stem moves to a
// trailing "(N)" after the whole extension, compensating for sidecars
// named like "image.jpg(11).json" against media "image(11).jpg".
func bracketSwap(name string) (string, bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	m := numberedSuffixRe.FindStringSubmatch(stem)
	if m == nil {
		return "", false
	}
	return m[1] + ext + "(" + m[2] + ")", true
}

// removeExtraSuffix strips a known EXTRA_FORMATS suffix (optionally
// followed by "(N)") immediately before the extension. Returns ok=false if
// no known suffix matched.
func removeExtraSuffix(name string, _ bool) (string, bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	trailingNumber := ""
	if m := numberedSuffixRe.FindStringSubmatch(stem); m != nil {
		stem = m[1]
		trailingNumber = "(" + m[2] + ")"
	}

	for _, suffix := range EXTRA_FORMATS {
		if strings.HasSuffix(strings.ToLower(stem), strings.ToLower(suffix)) {
			trimmed := stem[:len(stem)-len(suffix)]
			return trimmed + trailingNumber + ext, true
		}
	}
	return name, false
}

// partialExtraSuffixRemovals implements S8: try every truncated prefix of
// at least two bytes of each EXTRA_FORMATS suffix (longest first) and strip it from the
// stem if present, for when Takeout itself truncated the suffix.
func partialExtraSuffixRemovals(name string) []string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	var out []string
	for _, suffix := range EXTRA_FORMATS {
		for cut := len(suffix) - 1; cut >= 2; cut-- {
			partial := suffix[:cut]
			if strings.HasSuffix(strings.ToLower(stem), strings.ToLower(partial)) {
				trimmed := stem[:len(stem)-len(partial)]
				out = append(out, trimmed+ext)
			}
		}
	}
	return out
}

// edgeCaseSuffixTrim implements S10: when nothing in EXTRA_FORMATS matched,
// heuristically trim a trailing "-<word>" run that looks like an
// unrecognized edit-suffix (short, alphabetic, hyphen-introduced).
func edgeCaseSuffixTrim(stem string) (string, bool) {
	idx := strings.LastIndexByte(stem, '-')
	if idx < 0 || idx == 0 {
		return "", false
	}
	tail := stem[idx+1:]
	if len(tail) == 0 || len(tail) > 16 {
		return "", false
	}
	for _, r := range tail {
		if !isASCIILetter(r) {
			return "", false
		}
	}
	return stem[:idx], true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
