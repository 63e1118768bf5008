// CLI entry point for termsim.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/termsim/internal/interfaces/cli"
	"github.com/turtacn/termsim/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	// Execute has already printed the error.
	os.Exit(errors.ExitCode(err))
}

//Personal.AI order the ending
