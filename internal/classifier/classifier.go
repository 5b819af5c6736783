// Package classifier implements C2: deciding whether a path is a media file
// by content-sniffed MIME plus an extension allowlist, and walking the
// Google Photos root into year-folder and album-folder entity discovery.
// Grounded on the teacher's scanMediaFiles (an extension-set WalkDir), with
// the extension set replaced by the content-sniff design spec.md requires
// and the walk generalized into the year/album split of §4.2.
package classifier

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
	"github.com/bryanbrunetti/takeout-organizer/internal/pathutil"
)

// rawExtAllowlist holds extensions that are media despite an ambiguous or
// absent MIME sniff (raw camera formats, Pixel motion photos, etc).
var rawExtAllowlist = map[string]bool{
	".mp": true, ".mv": true, ".dng": true, ".cr2": true, ".nef": true,
	".arw": true, ".heic": true, ".heif": true, ".raw": true,
}

// IsMediaFile reports whether path is a photo or video per §4.2: MIME
// starts with image/ or video/, OR is exactly model/vnd.mts (a known
// misclassification for MPEG transport streams), OR the lowercase
// extension is in the raw/motion-photo allowlist.
func IsMediaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if rawExtAllowlist[ext] {
		return true
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	m := mtype.String()
	if strings.HasPrefix(m, "image/") || strings.HasPrefix(m, "video/") {
		return true
	}
	if m == "model/vnd.mts" {
		return true
	}
	return false
}

// SniffMIME returns the content-sniffed MIME type for path, used by the
// EXIF writer to detect extension/content mismatches before handing a
// file to the external tool (§4.7).
func SniffMIME(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mtype.String(), nil
}

// DirKind is the classification of a top-level child of the Google Photos
// root.
type DirKind int

const (
	DirYear DirKind = iota
	DirAlbum
)

// Discovered is one discovery result: a media entity plus the directory
// kind it came from (used by the caller to build the initial Collection).
type Discovered struct {
	Entity model.MediaEntity
	Kind   DirKind
}

// Discover walks the Google Photos root exactly once (§4.2): each top-level
// child directory is classified YEAR or ALBUM, then walked recursively for
// media files.
func Discover(googlePhotosRoot string) ([]Discovered, error) {
	entries, err := os.ReadDir(googlePhotosRoot)
	if err != nil {
		return nil, err
	}

	var out []Discovered
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		childDir := filepath.Join(googlePhotosRoot, e.Name())

		if _, ok := pathutil.IsYearFolder(e.Name()); ok {
			found, err := walkMedia(childDir)
			if err != nil {
				return nil, err
			}
			for _, path := range found {
				out = append(out, Discovered{
					Entity: model.New(path, "", ""),
					Kind:   DirYear,
				})
			}
			continue
		}

		if !dirHasMediaRecursive(childDir) {
			continue
		}
		albumName := pathutil.RepairMojibake(e.Name())
		found, err := walkMedia(childDir)
		if err != nil {
			return nil, err
		}
		for _, path := range found {
			out = append(out, Discovered{
				Entity: model.New(path, albumName, childDir),
				Kind:   DirAlbum,
			})
		}
	}
	return out, nil
}

func walkMedia(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsMediaFile(path) {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}

func dirHasMediaRecursive(dir string) bool {
	has := false
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || has {
			return nil
		}
		if !d.IsDir() && IsMediaFile(path) {
			has = true
		}
		return nil
	})
	return has
}
