package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/bch9248/benchctl/internal/cli"
	bencherrors "github.com/bch9248/benchctl/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A developer .env can provide BENCHCTL_* and DEBUG before anything
	// else reads the environment. Missing files are fine.
	_ = godotenv.Load()

	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		var exitErr *bencherrors.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
