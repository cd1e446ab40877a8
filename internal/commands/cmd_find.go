package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"weekly-planner/internal/model"
)

type FindCmd struct {
	flags    *Flags
	complete bool
	remove   bool
	yes      bool
}

func NewFindCmd(flags *Flags) *FindCmd {
	return &FindCmd{flags: flags}
}

func (cmd *FindCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "find",
		Usage:     "Look tasks up by title",
		ArgsUsage: "<title>",
		Description: `Lists every task whose title matches exactly.

--done and --rm act on the match, but only when the title is unique.
Titles are not unique, so use the id when more than one task matches.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "done",
				Usage:       "complete the matching task",
				Destination: &cmd.complete,
			},
			&cli.BoolFlag{
				Name:        "rm",
				Usage:       "delete the matching task",
				Destination: &cmd.remove,
			},
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "do not ask for confirmation",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *FindCmd) run(ctx context.Context, c *cli.Command) error {
	title := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(title) == "" {
		return &model.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if cmd.complete && cmd.remove {
		return fmt.Errorf("--done and --rm cannot be combined")
	}

	matches, err := cmd.flags.Tasks.FindByTitle(ctx, title)
	if err != nil {
		return fmt.Errorf("find task: %w", err)
	}

	w := c.Root().Writer
	if len(matches) == 0 {
		_, _ = fmt.Fprintf(w, "No task titled %q\n", strings.TrimSpace(title))
		return nil
	}

	for _, task := range matches {
		status := "active"
		if task.IsCompleted() {
			status = "completed"
		}
		_, _ = fmt.Fprintf(w, "  %s %s %s %s\n",
			idStyle.Render(fmt.Sprintf("#%-3d", task.ID)),
			oneLine(task.Title),
			dayStyle(task.Day).Render(task.Day.String()),
			mutedStyle.Render(status),
		)
	}

	if !cmd.complete && !cmd.remove {
		return nil
	}
	if len(matches) > 1 {
		return fmt.Errorf("title %q matches %d tasks, use the id instead", strings.TrimSpace(title), len(matches))
	}

	task := matches[0]
	_, _ = fmt.Fprintln(w)
	if cmd.complete {
		if err := cmd.flags.Tasks.Complete(ctx, task.ID); err != nil {
			return fmt.Errorf("complete task %d: %w", task.ID, err)
		}
		_, _ = fmt.Fprintf(w, "Completed #%d %s\n\n", task.ID, task.Title)
		return printDay(ctx, c, cmd.flags, task.Day)
	}

	ok, err := cmd.flags.confirm(cmd.yes, fmt.Sprintf("Delete #%d %q?", task.ID, task.Title))
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(w, "Nothing deleted")
		return nil
	}
	if err := cmd.flags.Tasks.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task %d: %w", task.ID, err)
	}
	_, _ = fmt.Fprintf(w, "Deleted #%d %s\n\n", task.ID, task.Title)
	return printDay(ctx, c, cmd.flags, task.Day)
}
