package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/iobroker-community/adapter-radar/internal/cli"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	// A local .env is a convenient place for RADAR_GITHUB_TOKEN.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
