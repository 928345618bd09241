package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nir0k/pixtrail/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		// run results were already printed; only explain other failures
		if !errors.Is(err, app.ErrNoOutput) && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "pixtrail failed: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
