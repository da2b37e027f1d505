package main

import (
	"os"

	"github.com/dogfold-labs/dogfold/internal/cli"
	"github.com/dogfold-labs/dogfold/internal/dogerr"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		os.Exit(dogerr.ExitCode(err))
	}
}
