package pipeline

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanbrunetti/takeout-organizer/internal/classifier"
	"github.com/bryanbrunetti/takeout-organizer/internal/config"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// conservativeSkipExt names extensions CONSERVATIVE mode never renames:
// the TIFF-family raw formats and JPEG, both of which commonly sniff as
// something other than their conventional extension (§4.1 conservative
// exemption).
var conservativeSkipExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".cr2": true, ".nef": true, ".arw": true, ".dng": true,
}

// stepFixExtensions implements C11 step 1: walk the takeout root and
// rename any file whose declared extension disagrees with its
// content-sniffed MIME type, subject to the configured mode. SOLO mode
// performs the rename pass and signals the caller to stop the pipeline
// there via the "solo-exit" message.
func stepFixExtensions(cfg *config.ProcessingConfig, googlePhotosRoot string, res *Result) model.StepResult {
	if cfg.FixExtensionsMode == model.FixExtensionsNone {
		return model.StepResult{Success: true, Skipped: true, Message: "fix_extensions disabled"}
	}

	fixed := 0
	err := filepath.Walk(googlePhotosRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if renamed, err := fixOneExtension(path, cfg.FixExtensionsMode); err == nil && renamed {
			fixed++
		}
		return nil
	})
	if err != nil {
		return model.StepResult{Err: err}
	}

	res.Counters.ExtensionsFixed = fixed

	sr := model.StepResult{Success: true, StructuredData: map[string]any{"fixed": fixed}}
	if cfg.FixExtensionsMode == model.FixExtensionsSolo {
		sr.Message = "solo-exit"
	}
	return sr
}

func fixOneExtension(path string, mode model.FixExtensionsMode) (bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return false, nil
	}
	if mode == model.FixExtensionsConservative && conservativeSkipExt[ext] {
		return false, nil
	}

	sniffed, err := classifier.SniffMIME(path)
	if err != nil {
		return false, nil
	}

	declared := mime.TypeByExtension(ext)
	if declared != "" {
		if base, _, perr := mime.ParseMediaType(declared); perr == nil {
			declared = base
		}
	}
	if declared == sniffed {
		return false, nil
	}

	exts, err := mime.ExtensionsByType(sniffed)
	if err != nil || len(exts) == 0 {
		return false, nil
	}

	newPath := strings.TrimSuffix(path, filepath.Ext(path)) + exts[0]
	if newPath == path {
		return false, nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return false, nil // destination already occupied, leave the mismatch alone
	}

	if err := os.Rename(path, newPath); err != nil {
		return false, err
	}
	return true, nil
}
