// Command takeoutctl reorganizes a Google Photos Takeout export into a
// deduplicated, date-divided, EXIF-enriched photo library.
package main

import (
	"fmt"
	"os"
)

var version = "development"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
