// Package fsops implements C9: the move/copy/symlink primitives every
// moving strategy is built from. Grounded on the teacher's moveFile/
// createAlbumSymlink (plain os.Rename + os.Symlink with a relative-path
// calculation), generalized with cross-device fallback, a Windows link
// policy, and a caller-supplied unique-name callback (§4.9).
package fsops

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
	"github.com/bryanbrunetti/takeout-organizer/internal/pathutil"
)

const copyChunkSize = 1 << 20

// ExistsFunc reports whether a path is already occupied; callers pass
// pathutil.FileExists or a claimed-paths set for race-free concurrent
// resolution (§4.9).
type ExistsFunc func(string) bool

// Move relocates src to dest, creating dest's parent directories as
// needed. It first tries a filesystem rename; on a cross-device error it
// falls back to a streamed copy followed by source deletion (§4.9).
func Move(src, dest string) error {
	dest = pathutil.NormalizeForWrite(dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.New(errs.OutputNotWritable, "fsops.Move.mkdir", dest, err)
	}

	if err := os.Rename(src, dest); err == nil {
		return nil
	} else if !isCrossDeviceErr(err) {
		return errs.New(errs.OutputNotWritable, "fsops.Move.rename", dest, err)
	}

	if err := Copy(src, dest); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return errs.New(errs.OutputNotWritable, "fsops.Move.cleanup", src, err)
	}
	return nil
}

// Copy streams src's contents to dest, creating parent directories as
// needed and best-effort preserving the modification time (§4.9).
func Copy(src, dest string) error {
	dest = pathutil.NormalizeForWrite(dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.New(errs.OutputNotWritable, "fsops.Copy.mkdir", dest, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return errs.New(errs.InputNotFound, "fsops.Copy.open", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errs.New(errs.OutputNotWritable, "fsops.Copy.create", dest, err)
	}

	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		return errs.New(errs.OutputNotWritable, "fsops.Copy.write", dest, err)
	}
	if err := out.Close(); err != nil {
		return errs.New(errs.OutputNotWritable, "fsops.Copy.close", dest, err)
	}

	if info, err := in.Stat(); err == nil {
		_ = os.Chtimes(dest, time.Now(), info.ModTime()) // best-effort, §4.9
	}
	return nil
}

// Symlink creates a symbolic link at linkPath whose target is expressed
// relative to linkPath's parent directory, so the output tree remains
// portable if moved as a whole (§4.9). On platforms/situations where a
// native symlink cannot be created, it falls back to the platform link
// policy implemented in createLinkPlatform.
func Symlink(target, linkPath string) error {
	linkPath = pathutil.NormalizeForWrite(linkPath)
	linkPath = sanitizeLinkPath(linkPath)
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return errs.New(errs.OutputNotWritable, "fsops.Symlink.mkdir", linkPath, err)
	}

	rel, err := filepath.Rel(filepath.Dir(linkPath), target)
	if err != nil {
		rel = target
	}

	if _, err := os.Lstat(linkPath); err == nil {
		if err := os.Remove(linkPath); err != nil {
			return errs.New(errs.OutputNotWritable, "fsops.Symlink.replace", linkPath, err)
		}
	}

	return createLinkPlatform(target, rel, linkPath)
}

// sanitizeLinkPath trims trailing spaces/dots from the link's leaf name
// only (never the source file's name on disk), per the Windows
// link-naming rule in §4.9; a no-op on non-Windows targets.
func sanitizeLinkPath(linkPath string) string {
	if !pathutil.IsWindowsTarget() {
		return linkPath
	}
	dir, leaf := filepath.Split(linkPath)
	ext := filepath.Ext(leaf)
	stem := strings.TrimSuffix(leaf, ext)
	stem = strings.TrimRight(stem, " .")
	return filepath.Join(dir, stem+ext)
}

// UniqueTarget resolves a collision-free destination path under dir for
// baseName, using exists to probe occupancy (§4.9).
func UniqueTarget(dir, baseName string, exists ExistsFunc) string {
	return pathutil.UniqueName(filepath.Join(dir, baseName), exists)
}
