package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/queue"
	"outreach/internal/taskqueue"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var count int
	var drain bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run task queue workers until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger := ctx.log()
				dispatcher, closeCache, err := newDispatcher(cfg, store, logger)
				if err != nil {
					return err
				}
				defer func() {
					if err := closeCache(); err != nil {
						logger.Warn("close lookup cache", zap.Error(err))
					}
				}()

				n := count
				if n <= 0 {
					n = cfg.Tasks.Workers
				}
				pool := taskqueue.NewPool(n, taskqueue.OptionsFromConfig(cfg, store, dispatcher, logger))

				if drain {
					processed, err := drainQueue(cmd.Context(), pool.Workers()[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Processed %s\n", plural(int64(processed), "task"))
					return nil
				}

				err = pool.Run(cmd.Context())
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Number of workers (defaults to tasks.workers)")
	cmd.Flags().BoolVar(&drain, "drain", false, "Process pending tasks with one worker and exit when none remain")
	return cmd
}

// drainQueue ticks w until no pending task is left.
func drainQueue(ctx context.Context, w *taskqueue.Worker) (int, error) {
	processed := 0
	for ctx.Err() == nil {
		worked, err := w.Tick(ctx)
		if err != nil {
			return processed, err
		}
		if !worked {
			break
		}
		processed++
	}
	return processed, nil
}
