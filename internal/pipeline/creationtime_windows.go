//go:build windows

package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows"

	"github.com/bryanbrunetti/takeout-organizer/internal/config"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// stepUpdateCreationTime aligns each materialized file's creation time
// with its modification time (§4.11 step 8): NTFS is the one common
// filesystem exposing a creation-time attribute distinct from mtime, and
// Explorer sorts on it, so without this step files imported from a
// takeout archive sort by extraction date rather than photo date.
func stepUpdateCreationTime(cfg *config.ProcessingConfig) model.StepResult {
	if !cfg.UpdateCreationTime || cfg.DryRun {
		return model.StepResult{Success: true, Skipped: true, Message: "update_creation_time disabled"}
	}

	updated := 0
	err := filepath.Walk(cfg.OutputPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if setCreationTimeToModTime(path, info.ModTime()) == nil {
			updated++
		}
		return nil
	})
	if err != nil {
		return model.StepResult{Err: err}
	}
	return model.StepResult{Success: true, StructuredData: map[string]any{"updated": updated}}
}

func setCreationTimeToModTime(path string, modTime time.Time) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p,
		windows.FILE_WRITE_ATTRIBUTES, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	ft := windows.NsecToFiletime(modTime.UnixNano())
	return windows.SetFileTime(h, &ft, nil, nil)
}
