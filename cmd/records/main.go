package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/recordbook/internal/recordscli"
	"github.com/okian/recordbook/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	cfg, err := recordscli.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	// Logs go to stderr so stdout stays machine-readable.
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString("warn")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	if err := recordscli.Run(ctx, cfg, os.Stdout); err != nil {
		os.Stderr.WriteString("records: " + err.Error() + "\n")
		cancel()
		stop()
		os.Exit(1)
	}
}
