package main

import (
	"os"

	"github.com/labbookdb/labbookdb/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
