package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/task-workflow/internal/auth"
	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/service"
	"github.com/BuzzLyutic/task-workflow/internal/worker"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
)

func newTransitionCmd(a *app) *cobra.Command {
	var (
		actorID string
		roles   string
		reason  string
	)

	cmd := &cobra.Command{
		Use:   "transition TASK_ID STATUS",
		Short: "Move a task to another status on behalf of a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			to, ok := model.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q (one of %v)", args[1], model.Statuses())
			}

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			pool := worker.NewPool(a.logger, 1, 1, worker.NewStartRecorder(store))
			pool.Start(ctx)
			defer pool.Stop()

			actor := model.Anonymous
			if actorID != "" {
				actor = model.Actor{ID: actorID, Roles: auth.ParseRoles(roles), Authenticated: true}
			}

			engine := workflow.NewEngine(store, auth.NewRolePolicy(a.cfg.ElevatedRoles), pool, a.logger)
			task, err := engine.TransitionByID(ctx, id, to, actor, reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), task)
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "id of the acting user")
	cmd.Flags().StringVar(&roles, "roles", "", "comma-separated roles of the acting user")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the audit trail")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history TASK_ID",
		Short: "Print a task's status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			store, closeStore, err := openStore(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			history, err := workflow.NewEngine(store, nil, nil, a.logger).History(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), history)
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary PROJECT_ID",
		Short: "Print a project's progress summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}

			store, closeStore, err := openStore(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			summary, err := service.NewProjectService(store).Summarize(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
