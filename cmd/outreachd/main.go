// Command outreachd runs the stage orchestrator until SIGINT or SIGTERM.
//
// It takes no arguments. Configuration comes from OUTREACH_CONFIG (or the
// default locations) and every setting can be overridden from the
// environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"outreach/internal/config"
	"outreach/internal/logging"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	return run(ctx, cfg, logger)
}
