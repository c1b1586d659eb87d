package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/conorfennell/cuecard/cmd/cuecard/commands"
)

// Version information, set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// CUECARD_* settings may come from a .env file.
	_ = godotenv.Load()

	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
