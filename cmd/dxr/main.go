package main

import (
	"os"

	"github.com/dxr-dev/dxr/internal/cli"
	"github.com/dxr-dev/dxr/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		logging.Default().Error("command failed", logging.FieldError, err)
		os.Exit(1)
	}
}
