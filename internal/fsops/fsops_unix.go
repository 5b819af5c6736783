//go:build !windows

package fsops

import (
	"errors"
	"os"
	"syscall"

	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
)

// isCrossDeviceErr reports whether err is the platform's EXDEV-equivalent
// (§4.9 cross-device detection).
func isCrossDeviceErr(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// createLinkPlatform creates a plain symbolic link. Unix targets never
// require the privilege probe or junction/hardlink fallback §4.9
// reserves for Windows.
func createLinkPlatform(_, rel, linkPath string) error {
	if err := os.Symlink(rel, linkPath); err != nil {
		return errs.New(errs.LinkUnsupported, "fsops.Symlink", linkPath, err)
	}
	return nil
}
