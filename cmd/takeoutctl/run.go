package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bryanbrunetti/takeout-organizer/internal/config"
	"github.com/bryanbrunetti/takeout-organizer/internal/logging"
	"github.com/bryanbrunetti/takeout-organizer/internal/pipeline"
)

// newRunCmd binds every flag of spec.md §6.4 through viper (flags > env >
// config file > defaults) before resolving a config.ProcessingConfig and
// invoking the pipeline.
func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a Takeout export",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "input root (required)")
	flags.String("output", "", "output root (required)")
	flags.String("albums", "shortcut", "one of shortcut, reverse-shortcut, duplicate-copy, json, nothing")
	flags.Int("divide-to-dates", 2, "date division level, 0..3")
	flags.Bool("write-exif", true, "write resolved dates/GPS into EXIF (C7)")
	flags.Bool("guess-from-name", true, "enable the filename date-guess extractor (C4 strategy 3)")
	flags.Bool("skip-extras", false, "drop files matching EXTRA_FORMATS after discovery")
	flags.String("fix-extensions", "none", "one of none, standard, conservative, solo")
	flags.Bool("transform-pixel-mp", false, "rename .MP/.MV primaries to .mp4 before moving")
	flags.Bool("update-creation-time", false, "run step 8 (platform-gated)")
	flags.Bool("limit-filesize", false, "apply a 64 MB upper bound per file for memory-bound systems")
	flags.Bool("divide-partner-shared", false, "route partner-shared media into a PARTNER_SHARED/ subtree")
	flags.String("file-dates", "", "path to a supplemental date dictionary")
	flags.Bool("keep-input", false, "operate on a sibling _tmp copy of the input instead of mutating it")
	flags.Bool("dry-run", false, "run every step except move_files and update_creation_time")
	flags.Bool("verbose", false, "enable debug-level logging")
	flags.Int("workers", 4, "worker pool size")

	for _, name := range []string{
		"input", "output", "albums", "divide-to-dates", "write-exif", "guess-from-name",
		"skip-extras", "fix-extensions", "transform-pixel-mp", "update-creation-time",
		"limit-filesize", "divide-partner-shared", "file-dates", "keep-input",
		"dry-run", "verbose", "workers",
	} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(bindError(name, err))
		}
	}

	return cmd
}

func runPipeline(cmd *cobra.Command, v *viper.Viper) error {
	verbose := v.GetBool("verbose")
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Resolve(v, log)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	printSummary(cmd, res)
	return nil
}

func printSummary(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "completed in %s\n", res.TotalDuration)
	fmt.Fprintf(out, "  duplicates removed:  %d\n", res.Counters.DuplicatesRemoved)
	fmt.Fprintf(out, "  albums merged:       %d\n", res.Counters.AlbumsMerged)
	fmt.Fprintf(out, "  dates extracted:     %d\n", res.Counters.DatesExtracted)
	fmt.Fprintf(out, "  extensions fixed:    %d\n", res.Counters.ExtensionsFixed)
	fmt.Fprintf(out, "  coordinates written: %d\n", res.Counters.CoordinatesWritten)
	fmt.Fprintf(out, "  date-times written:  %d\n", res.Counters.DateTimesWritten)
	for method, count := range res.ExtractionMethods {
		fmt.Fprintf(out, "  date method %-14s %d\n", method+":", count)
	}
	for _, step := range res.Steps {
		status := "ok"
		if step.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(out, "  step %-20s %-8s %s\n", step.StepName, status, step.Duration)
	}
}
