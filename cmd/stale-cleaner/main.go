// Command stale-cleaner removes stale files and the directories they leave empty.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stale-cleaner/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
