// Package errs defines the engine-wide error kinds from the error handling
// design: a closed set of sentinel kinds wrapped with operation context.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so callers can decide fatal vs. logged-and-counted
// behavior with errors.Is instead of string matching.
type Kind int

const (
	Unknown Kind = iota
	PathResolutionFailed
	InputNotFound
	OutputNotWritable
	InsufficientDiskSpace
	SidecarMalformed
	ExifReadFailed
	ExifWriteFailed
	CrossDevice
	LinkUnsupported
	ContentMimeMismatch
	InvalidPath
)

func (k Kind) String() string {
	switch k {
	case PathResolutionFailed:
		return "path_resolution_failed"
	case InputNotFound:
		return "input_not_found"
	case OutputNotWritable:
		return "output_not_writable"
	case InsufficientDiskSpace:
		return "insufficient_disk_space"
	case SidecarMalformed:
		return "sidecar_malformed"
	case ExifReadFailed:
		return "exif_read_failed"
	case ExifWriteFailed:
		return "exif_write_failed"
	case CrossDevice:
		return "cross_device"
	case LinkUnsupported:
		return "link_unsupported"
	case ContentMimeMismatch:
		return "content_mime_mismatch"
	case InvalidPath:
		return "invalid_path"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind should abort the pipeline step
// that produced them, per the propagation policy in the error handling design.
func (k Kind) Fatal() bool {
	switch k {
	case PathResolutionFailed, InputNotFound, OutputNotWritable, InsufficientDiskSpace:
		return true
	default:
		return false
	}
}

// E is a wrapped error carrying a Kind, the failing operation name, and the
// path it concerns. It implements Unwrap so errors.Is/As keep working through
// the wrapping chain.
type E struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *E) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *E) Unwrap() error { return e.Err }

// New wraps err with a Kind and operation/path context. Returns nil if err is nil.
func New(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &E{Kind: kind, Op: op, Path: path, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *E
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or Unknown if err does not wrap an *E.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
