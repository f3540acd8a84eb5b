package main

import (
	"os"
)

// nolint: gochecknoglobals
var Version = "master"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
