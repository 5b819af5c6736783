//go:build !windows

package pipeline

import (
	"github.com/bryanbrunetti/takeout-organizer/internal/config"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// stepUpdateCreationTime is a no-op off Windows: POSIX filesystems have
// no distinct creation-time attribute to align with the modification
// time (§4.11 step 8, platform note).
func stepUpdateCreationTime(cfg *config.ProcessingConfig) model.StepResult {
	return model.StepResult{Success: true, Skipped: true, Message: "creation time unsupported on this platform"}
}
