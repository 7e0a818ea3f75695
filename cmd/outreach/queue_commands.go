package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"outreach/internal/config"
	"outreach/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage work items",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueuePromoteCommand(ctx))
	queueCmd.AddCommand(newQueueReclaimCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueEngageCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show item counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				taskStats, err := store.TaskStats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"items": stats, "tasks": taskStats})
				}
				rows := countRows(stats)
				taskRows := countRows(taskStats)
				if len(rows) == 0 && len(taskRows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				aligns := []columnAlignment{alignLeft, alignRight}
				if len(rows) > 0 {
					fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Items"}, rows, aligns))
				}
				if len(taskRows) > 0 {
					fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Task status", "Tasks"}, taskRows, aligns))
				}
				return nil
			})
		},
	}
}

type itemView struct {
	ID          int64      `json:"id"`
	Status      string     `json:"status"`
	CompanyName string     `json:"company_name"`
	ContactName string     `json:"contact_name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	Website     string     `json:"website,omitempty"`
	Tier        string     `json:"tier,omitempty"`
	Score       int        `json:"score,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	FailedStage string     `json:"failed_stage,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
}

func newItemView(item *queue.Item) itemView {
	meta := item.Metadata()
	return itemView{
		ID:          item.ID,
		Status:      string(item.Status),
		CompanyName: item.CompanyName,
		ContactName: item.ContactName,
		Phone:       item.Phone,
		Email:       item.Email,
		Website:     item.Website,
		Tier:        string(meta.Tier),
		Score:       meta.Score,
		Notes:       item.Notes,
		FailedStage: string(item.FailedStage),
		UpdatedAt:   item.UpdatedAt,
		EmailSentAt: item.EmailSentAt,
		ContactedAt: item.ContactedAt,
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				var items []*queue.Item
				if len(statuses) > 0 {
					items, err = store.Batch(cmd.Context(), limit, statuses...)
				} else {
					items, err = store.List(cmd.Context())
					if limit > 0 && len(items) > limit {
						items = items[:limit]
					}
				}
				if err != nil {
					return err
				}
				views := make([]itemView, len(items))
				for i, item := range items {
					views[i] = newItemView(item)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						fmt.Sprintf("%d", v.ID),
						dash(v.CompanyName),
						formatStatusLabel(v.Status),
						dash(v.Tier),
						dash(v.Phone),
						dash(v.Email),
						formatOptionalTime(v.EmailSentAt),
						formatDisplayTime(v.UpdatedAt),
						dash(clip(v.Notes, 40)),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Company", "Status", "Tier", "Phone", "Email", "Emailed", "Updated", "Notes"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by item status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum items to show (0 for all)")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Return crashed items to the stage they failed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				n, err := store.RetryCrashed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %s\n", plural(n, "crashed item"))
				return nil
			})
		},
	}
}

func newQueuePromoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote [id...]",
		Short: "Hand enriched items to ready_to_send and outreached items to warming_up",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				n, err := store.PromoteToSend(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Promoted %s\n", plural(n, "item"))
				return nil
			})
		},
	}
}

func newQueueReclaimCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Return stale processing items to their source status and fail abandoned tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				itemAge, taskAge := olderThan, olderThan
				if olderThan <= 0 {
					itemAge, taskAge = cfg.Orchestrator.Stale(), cfg.Tasks.Stale()
				}
				now := time.Now()
				n, err := store.ReclaimStale(cmd.Context(), now.Add(-itemAge))
				if err != nil {
					return err
				}
				tasks, err := store.ReclaimStaleTasks(cmd.Context(), now.Add(-taskAge))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reclaimed %s\n", plural(n, "stale item"))
				fmt.Fprintf(cmd.OutOrStdout(), "Failed %s\n", plural(tasks, "abandoned task"))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum processing age (defaults to orchestrator.stale_timeout for items, tasks.stale_timeout for tasks)")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database integrity and lifecycle totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				db, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"database": db, "items": summary})
				}
				rows := [][]string{
					{"Database", db.DBPath},
					{"Schema version", dash(db.SchemaVersion)},
					{"Integrity check", yesNo(db.IntegrityCheck)},
					{"Total items", fmt.Sprintf("%d", summary.Total)},
					{"In pipeline", fmt.Sprintf("%d", summary.Pipeline)},
					{"Processing", fmt.Sprintf("%d", summary.Processing)},
					{"Waiting", fmt.Sprintf("%d", summary.Waiting)},
					{"Contacted", fmt.Sprintf("%d", summary.Contacted)},
					{"Failed", fmt.Sprintf("%d", summary.Failed)},
					{"Total tasks", fmt.Sprintf("%d", db.TotalTasks)},
				}
				if db.Error != "" {
					rows = append(rows, []string{"Error", db.Error})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Check", "Value"}, rows, nil))
				return nil
			})
		},
	}
}

func newQueueEngageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "engage <id> <open|click|reply>",
		Short: "Record an engagement event against an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}
			event := queue.EngagementEvent(args[1])
			if _, ok := event.Points(); !ok {
				return fmt.Errorf("unknown engagement event %q", args[1])
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				score, err := store.RecordEngagement(cmd.Context(), ids[0], event)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d engagement score: %d\n", ids[0], score)
				return nil
			})
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
