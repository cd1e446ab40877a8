package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"weekly-planner/internal/model"
)

type StatusCmd struct {
	flags *Flags
	yes   bool
}

func NewStatusCmd(flags *Flags) *StatusCmd {
	return &StatusCmd{flags: flags}
}

func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "done",
			Usage:     "Mark a task completed",
			ArgsUsage: "<id>",
			Action:    cmd.runDone,
		},
		&cli.Command{
			Name:      "reopen",
			Usage:     "Put a completed task back on its day",
			ArgsUsage: "<id>",
			Action:    cmd.runReopen,
		},
		&cli.Command{
			Name:      "rm",
			Aliases:   []string{"delete"},
			Usage:     "Delete a task for good",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "yes",
					Aliases:     []string{"y"},
					Usage:       "do not ask for confirmation",
					Destination: &cmd.yes,
				},
			},
			Action: cmd.runRemove,
		},
	)
	return app
}

func (cmd *StatusCmd) runDone(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	task, err := cmd.flags.Tasks.Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		_, _ = fmt.Fprintf(c.Root().Writer, "#%d does not exist, nothing to complete\n", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	if task.IsCompleted() {
		_, _ = fmt.Fprintf(c.Root().Writer, "#%d is already completed\n", id)
		return nil
	}

	if err := cmd.flags.Tasks.Complete(ctx, id); err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Completed #%d %s\n\n", id, task.Title)
	return printDay(ctx, c, cmd.flags, task.Day)
}

func (cmd *StatusCmd) runReopen(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	if err := cmd.flags.Tasks.Reopen(ctx, id); err != nil {
		return fmt.Errorf("reopen task %d: %w", id, err)
	}

	task, err := cmd.flags.Tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("reopen task %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Reopened #%d on %s\n\n", id, task.Day)
	return printDay(ctx, c, cmd.flags, task.Day)
}

func (cmd *StatusCmd) runRemove(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	task, err := cmd.flags.Tasks.Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		_, _ = fmt.Fprintf(c.Root().Writer, "#%d does not exist, nothing to delete\n", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	ok, err := cmd.flags.confirm(cmd.yes, fmt.Sprintf("Delete #%d %q?", id, task.Title))
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(c.Root().Writer, "Nothing deleted")
		return nil
	}

	if err := cmd.flags.Tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Deleted #%d %s\n\n", id, task.Title)
	if task.IsCompleted() {
		return nil
	}
	return printDay(ctx, c, cmd.flags, task.Day)
}
