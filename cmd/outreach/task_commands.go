package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"outreach/internal/config"
	"outreach/internal/queue"
	"outreach/internal/skills"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Enqueue and inspect ad hoc skill tasks",
	}

	taskCmd.AddCommand(newTaskEnqueueCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskShowCommand(ctx))
	taskCmd.AddCommand(newTaskRetryCommand(ctx))

	return taskCmd
}

func newTaskEnqueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <skill> [payload-json|-]",
		Short: "Add a pending task for a skill",
		Long: "Add a pending task. The payload is a JSON object given inline or on stdin with \"-\".\n" +
			"Known skills: " + strings.Join(skills.New(skills.Deps{}).Names(), ", "),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskType := strings.TrimSpace(args[0])
			if taskType == "" {
				return errors.New("skill name is required")
			}
			raw := "{}"
			if len(args) == 2 {
				raw = args[1]
				if raw == "-" {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("read payload: %w", err)
					}
					raw = string(data)
				}
			}
			payload := json.RawMessage(strings.TrimSpace(raw))
			if !json.Valid(payload) {
				return errors.New("payload is not valid JSON")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				task, err := store.EnqueueTask(cmd.Context(), taskType, payload)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, newTaskView(task))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued task %d (%s)\n", task.ID, task.TaskType)
				return nil
			})
		},
	}
	return cmd
}

type taskView struct {
	ID           int64           `json:"id"`
	TaskType     string          `json:"task_type"`
	Status       string          `json:"status"`
	WorkerID     string          `json:"worker_id,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func newTaskView(task *queue.Task) taskView {
	return taskView{
		ID:           task.ID,
		TaskType:     task.TaskType,
		Status:       string(task.Status),
		WorkerID:     task.WorkerID,
		Payload:      task.Payload,
		Result:       task.Result,
		ErrorMessage: task.ErrorMessage,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseTaskStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				tasks, err := store.ListTasks(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				views := make([]taskView, len(tasks))
				for i, task := range tasks {
					views[i] = newTaskView(task)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						fmt.Sprintf("%d", v.ID),
						v.TaskType,
						formatStatusLabel(v.Status),
						dash(v.WorkerID),
						formatDisplayTime(v.UpdatedAt),
						dash(clip(v.ErrorMessage, 50)),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Skill", "Status", "Worker", "Updated", "Error"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by task status (repeatable)")
	return cmd
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task with its payload and result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				task, err := store.GetTask(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if task == nil {
					return fmt.Errorf("task %d not found", ids[0])
				}
				return writeJSON(cmd, newTaskView(task))
			})
		},
	}
}

func newTaskRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Return failed tasks to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				n, err := store.RequeueFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %s\n", plural(n, "failed task"))
				return nil
			})
		},
	}
}
