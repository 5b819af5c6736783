//go:build windows

package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
)

// isCrossDeviceErr reports whether err is Windows' EXDEV-equivalent
// (ERROR_NOT_SAME_DEVICE), per §4.9 cross-device detection.
func isCrossDeviceErr(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == windows.ERROR_NOT_SAME_DEVICE
	}
	return false
}

var (
	symlinkProbeOnce    sync.Once
	symlinkPrivileged   bool
)

// symlinkAllowed caches, once per process, whether native symlink
// creation succeeds on this host — typically gated behind Developer Mode
// or SeCreateSymbolicLinkPrivilege. A single failure disables the fast
// path for every subsequent call (§4.9).
func symlinkAllowed() bool {
	symlinkProbeOnce.Do(func() {
		dir, err := os.MkdirTemp("", "takeout-symlink-probe")
		if err != nil {
			symlinkPrivileged = false
			return
		}
		defer os.RemoveAll(dir)

		target := filepath.Join(dir, "target")
		link := filepath.Join(dir, "link")
		if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
			symlinkPrivileged = false
			return
		}
		symlinkPrivileged = os.Symlink(target, link) == nil
	})
	return symlinkPrivileged
}

// createLinkPlatform implements the Windows link policy (§4.9): try a
// native symlink first (gated by the cached privilege probe); on a
// directory target fall back to a junction, on a file target on the same
// drive fall back to a hardlink, and on a file target on a different
// drive return LinkUnsupported rather than silently copying.
func createLinkPlatform(target, rel, linkPath string) error {
	if symlinkAllowed() {
		if err := os.Symlink(rel, linkPath); err == nil {
			return nil
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		return errs.New(errs.LinkUnsupported, "fsops.Symlink.stat", target, err)
	}

	if info.IsDir() {
		if err := createJunction(target, linkPath); err != nil {
			return errs.New(errs.LinkUnsupported, "fsops.Symlink.junction", linkPath, err)
		}
		return nil
	}

	if filepath.VolumeName(target) != filepath.VolumeName(linkPath) {
		return errs.New(errs.LinkUnsupported, "fsops.Symlink.hardlink", linkPath,
			errors.New("hardlink target is on a different drive"))
	}

	if err := os.Link(target, linkPath); err != nil {
		return errs.New(errs.LinkUnsupported, "fsops.Symlink.hardlink", linkPath, err)
	}
	return nil
}

// createJunction creates an NTFS directory junction at linkPath pointing
// to target, using the reparse-point mechanism the "mklink /J" command
// wraps.
func createJunction(target, linkPath string) error {
	if err := os.Mkdir(linkPath, 0o755); err != nil {
		return err
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	h, err := windows.CreateFile(
		windows.StringToUTF16Ptr(linkPath),
		windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		os.Remove(linkPath)
		return err
	}
	defer windows.CloseHandle(h)

	buf := reparseBuffer(absTarget)
	var bytesReturned uint32
	return windows.DeviceIoControl(h, windows.FSCTL_SET_REPARSE_POINT, &buf[0], uint32(len(buf)), nil, 0, &bytesReturned, nil)
}

// reparseBuffer builds a REPARSE_DATA_BUFFER for an NTFS mount-point
// (junction) reparse point targeting absTarget.
func reparseBuffer(absTarget string) []byte {
	substitute := `\??\` + absTarget
	print := absTarget

	substituteUTF16 := windows.StringToUTF16(substitute)
	printUTF16 := windows.StringToUTF16(print)

	substituteBytes := utf16ToBytes(substituteUTF16[:len(substituteUTF16)-1])
	printBytes := utf16ToBytes(printUTF16[:len(printUTF16)-1])

	const reparseTagMountPoint = 0xA0000003
	pathBufLen := len(substituteBytes) + 2 + len(printBytes) + 2
	dataLen := 8 + pathBufLen
	total := 8 + dataLen

	buf := make([]byte, total)
	putUint32(buf[0:4], reparseTagMountPoint)
	putUint16(buf[4:6], uint16(dataLen))
	// buf[6:8] reserved

	putUint16(buf[8:10], 0) // SubstituteNameOffset
	putUint16(buf[10:12], uint16(len(substituteBytes)))
	putUint16(buf[12:14], uint16(len(substituteBytes)+2)) // PrintNameOffset
	putUint16(buf[14:16], uint16(len(printBytes)))

	copy(buf[16:], substituteBytes)
	copy(buf[16+len(substituteBytes)+2:], printBytes)
	return buf
}

func utf16ToBytes(u []uint16) []byte {
	b := make([]byte, len(u)*2)
	for i, v := range u {
		putUint16(b[i*2:], v)
	}
	return b
}

func putUint16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
