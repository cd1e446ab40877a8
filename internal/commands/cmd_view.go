package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"weekly-planner/internal/model"
)

type ViewCmd struct {
	flags *Flags
}

func NewViewCmd(flags *Flags) *ViewCmd {
	return &ViewCmd{flags: flags}
}

func (cmd *ViewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:    "week",
			Aliases: []string{"w"},
			Usage:   "Show the weekly board",
			Description: `Prints the seven days of the current week, Sunday first, with the
active tasks planned for each day.`,
			Action: cmd.runWeek,
		},
		&cli.Command{
			Name:      "day",
			Usage:     "Show the active tasks of one day",
			ArgsUsage: "[day]",
			Description: `Prints one column of the board. The day defaults to today and accepts
full names or three-letter abbreviations (mon, tue, ...).`,
			Action: cmd.runDay,
		},
		&cli.Command{
			Name:   "completed",
			Usage:  "List completed tasks",
			Action: cmd.runCompleted,
		},
		&cli.Command{
			Name:      "show",
			Usage:     "Show a task with its text",
			ArgsUsage: "<id>",
			Action:    cmd.runShow,
		},
	)
	return app
}

// Run is the root action: without a subcommand the board is printed.
func (cmd *ViewCmd) Run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() > 0 {
		return fmt.Errorf("unknown command %q. Run 'weeklyplanner --help' for usage", c.Args().First())
	}
	return cmd.runWeek(ctx, c)
}

func (cmd *ViewCmd) runWeek(ctx context.Context, c *cli.Command) error {
	now := cmd.flags.now()
	week, err := cmd.flags.Week.Refresh(ctx, now)
	if err != nil {
		return fmt.Errorf("refresh week: %w", err)
	}
	renderWeek(c.Root().Writer, week, now)
	return nil
}

func (cmd *ViewCmd) runDay(ctx context.Context, c *cli.Command) error {
	day := model.WeekdayOf(cmd.flags.now())
	if c.Args().Present() {
		var err error
		day, err = parseDay(c.Args().First(), cmd.flags)
		if err != nil {
			return err
		}
	}
	return printDay(ctx, c, cmd.flags, day)
}

func (cmd *ViewCmd) runCompleted(ctx context.Context, c *cli.Command) error {
	tasks, err := cmd.flags.Tasks.ListCompleted(ctx)
	if err != nil {
		return fmt.Errorf("list completed: %w", err)
	}
	renderCompleted(c.Root().Writer, tasks)
	return nil
}

func (cmd *ViewCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}
	task, err := cmd.flags.Tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("show task %d: %w", id, err)
	}
	renderTask(c.Root().Writer, *task)
	return nil
}
