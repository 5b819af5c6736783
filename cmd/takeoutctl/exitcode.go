package main

import (
	"strings"

	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
)

// Exit codes per §6.4: 0 success, 1 processing error, 2 argument error,
// 10 missing required path, 11 input path does not exist, 12 path
// resolution failed, 69 insufficient disk space.
const (
	exitSuccess              = 0
	exitProcessingError      = 1
	exitArgumentError        = 2
	exitMissingRequiredPath  = 10
	exitInputNotFound        = 11
	exitPathResolutionFailed = 12
	exitInsufficientDisk     = 69
)

func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}

	switch errs.KindOf(err) {
	case errs.InputNotFound:
		return exitInputNotFound
	case errs.PathResolutionFailed:
		return exitPathResolutionFailed
	case errs.InsufficientDiskSpace:
		return exitInsufficientDisk
	}

	msg := err.Error()
	if strings.Contains(msg, "required") {
		return exitMissingRequiredPath
	}
	if strings.HasPrefix(msg, "config:") {
		return exitArgumentError
	}
	return exitProcessingError
}
