// Package config builds the immutable ProcessingConfig the pipeline runs
// against. Values are layered with viper (flags > env > config file >
// defaults), grounded on ccfrost-camflow's spf13/viper usage, replacing the
// teacher's bare *flag.Config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// DateDictEntry is one record of the supplemental --fileDates JSON, keyed by
// filename (§6.5).
type DateDictEntry struct {
	OldestDate time.Time
}

// ProcessingConfig is the immutable, fully-resolved configuration a
// pipeline run executes against. Construct via Resolve or NewDefault;
// never mutated after construction.
type ProcessingConfig struct {
	InputPath  string
	OutputPath string

	AlbumBehavior     model.AlbumBehavior
	DateDivision      model.DateDivision
	FixExtensionsMode model.FixExtensionsMode

	WriteExif           bool
	GuessFromName       bool
	SkipExtras          bool
	TransformPixelMP    bool
	UpdateCreationTime  bool
	LimitFileSize       bool
	DividePartnerShared bool
	KeepInput           bool
	DryRun              bool
	Verbose             bool
	Workers             int

	FileDatesDictionary map[string]DateDictEntry

	Logger *zap.Logger
}

// NewDefault returns a ProcessingConfig with every documented default
// applied (§3.1): write_exif=true, guess_from_name=true, everything else
// false, album_behavior=SHORTCUT, date_division=YEAR_MONTH.
func NewDefault() *ProcessingConfig {
	return &ProcessingConfig{
		AlbumBehavior:     model.AlbumShortcut,
		DateDivision:      model.DivisionYearMonth,
		FixExtensionsMode: model.FixExtensionsNone,
		WriteExif:         true,
		GuessFromName:     true,
		Workers:           4,
		Logger:            zap.NewNop(),
	}
}

// Options mirrors the set of CLI-surfaced values (§6.4). Resolve does not
// take an Options value; it reads the same values from the bound viper
// instance.
type Options struct {
	Input               string
	Output               string
	Albums               string
	DivideToDates         int
	WriteExif             bool
	GuessFromName         bool
	SkipExtras            bool
	FixExtensions         string
	TransformPixelMP       bool
	UpdateCreationTime     bool
	LimitFileSize          bool
	DividePartnerShared    bool
	FileDates              string
	KeepInput              bool
	DryRun                 bool
	Verbose                bool
	Workers                int
}

// Resolve reads the CLI-surfaced values from v (already layered through
// viper by the caller), validates them, and converts them into an
// immutable ProcessingConfig.
func Resolve(v *viper.Viper, logger *zap.Logger) (*ProcessingConfig, error) {
	cfg := NewDefault()
	cfg.Logger = zap.NewNop()
	if logger != nil {
		cfg.Logger = logger
	}

	cfg.InputPath = v.GetString("input")
	cfg.OutputPath = v.GetString("output")
	if cfg.InputPath == "" {
		return nil, fmt.Errorf("config: input path is required")
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("config: output path is required")
	}

	if albums := v.GetString("albums"); albums != "" {
		b, ok := model.ParseAlbumBehavior(albums)
		if !ok {
			return nil, fmt.Errorf("config: unknown album behavior %q", albums)
		}
		cfg.AlbumBehavior = b
	}

	if v.IsSet("divide-to-dates") {
		d, ok := model.ParseDateDivision(v.GetInt("divide-to-dates"))
		if !ok {
			return nil, fmt.Errorf("config: divide-to-dates must be 0..3")
		}
		cfg.DateDivision = d
	}

	if fx := v.GetString("fix-extensions"); fx != "" {
		mode, ok := model.ParseFixExtensionsMode(fx)
		if !ok {
			return nil, fmt.Errorf("config: unknown fix-extensions mode %q", fx)
		}
		cfg.FixExtensionsMode = mode
	}

	cfg.WriteExif = v.GetBool("write-exif")
	cfg.GuessFromName = v.GetBool("guess-from-name")
	cfg.SkipExtras = v.GetBool("skip-extras")
	cfg.TransformPixelMP = v.GetBool("transform-pixel-mp")
	cfg.UpdateCreationTime = v.GetBool("update-creation-time")
	cfg.LimitFileSize = v.GetBool("limit-filesize")
	cfg.DividePartnerShared = v.GetBool("divide-partner-shared")
	cfg.KeepInput = v.GetBool("keep-input")
	cfg.DryRun = v.GetBool("dry-run")
	cfg.Verbose = v.GetBool("verbose")
	if w := v.GetInt("workers"); w > 0 {
		cfg.Workers = w
	}

	if path := v.GetString("file-dates"); path != "" {
		dict, err := loadDateDictionary(path)
		if err != nil {
			return nil, fmt.Errorf("config: loading file-dates dictionary: %w", err)
		}
		cfg.FileDatesDictionary = dict
	}

	return cfg, nil
}

// rawDateDictEntry mirrors the on-disk shape of §6.5: non-object values are
// ignored, and object values with unparsable dates are ignored.
type rawDateDictEntry struct {
	OldestDate string `json:"OldestDate"`
}

func loadDateDictionary(path string) (map[string]DateDictEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]DateDictEntry, len(raw))
	for filename, val := range raw {
		var entry rawDateDictEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			continue // non-object value: ignored per §6.5
		}
		t, err := parseISO8601Local(entry.OldestDate)
		if err != nil {
			continue // unparsable date: ignored per §6.5
		}
		out[filename] = DateDictEntry{OldestDate: t}
	}
	return out, nil
}

func parseISO8601Local(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("config: unparsable date %q", s)
}
