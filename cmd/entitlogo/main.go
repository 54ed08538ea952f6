package main

import (
	"fmt"
	"os"

	"github.com/entitlogo/entitlogo/pkg/logging"
)

func main() {
	banner := `
	 ___     _   _ _   _
	| __|_ _| |_(_) |_| |   ___  __ _ ___
	| _|| ' \  _| | |  _| |__/ _ \/ _  / _ \
	|___|_||_\__|_|\__|____\___/\__, \___/
	                            |___/
`
	fmt.Println(banner)
	defer logging.Sync()

	if err := newRootCommand().Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}

// Potential additions:
// - per-project scoping in addition to organization scope
// - scheduled runs with drift comparison against the DB sink
// - folder/org level entitlement rollups
