// Command airq runs the air-quality archive pipeline: fetch raw exports,
// normalize them into entity collections, load the store, and compute the
// aggregate analytics. Each stage is its own subcommand; "run" chains them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
