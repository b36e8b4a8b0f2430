package main

import (
	"os"

	"bundle-pricing/cmd/cli/cmd"
	"bundle-pricing/internal/logging"
)

func main() {
	defer logging.Sync()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
