package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"weekly-planner/internal/model"
	"weekly-planner/internal/service"
)

type AddCmd struct {
	flags   *Flags
	day     string
	content string
}

func NewAddCmd(flags *Flags) *AddCmd {
	return &AddCmd{flags: flags}
}

func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Aliases:   []string{"a"},
		Usage:     "Plan a new task",
		ArgsUsage: "[title]",
		Description: `Adds an active task to a day of the week.

Without a title an interactive form asks for the title, the text and the day.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "day",
				Aliases:     []string{"d"},
				Usage:       "weekday (full name, three letters, or 'today')",
				Value:       "today",
				Destination: &cmd.day,
			},
			&cli.StringFlag{
				Name:        "content",
				Aliases:     []string{"c"},
				Usage:       "free-form text of the task",
				Destination: &cmd.content,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	input := service.TaskInput{
		Title:   strings.Join(c.Args().Slice(), " "),
		Content: cmd.content,
	}

	if c.Args().Len() == 0 {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return &model.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		var aborted bool
		var err error
		input, aborted, err = cmd.runForm()
		if err != nil {
			return err
		}
		if aborted {
			return nil
		}
	} else {
		day, err := parseDay(cmd.day, cmd.flags)
		if err != nil {
			return err
		}
		input.Day = day
	}

	task, err := cmd.flags.Tasks.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Added #%d to %s\n\n", task.ID, task.Day)
	return printDay(ctx, c, cmd.flags, task.Day)
}

func (cmd *AddCmd) runForm() (service.TaskInput, bool, error) {
	input := service.TaskInput{Content: cmd.content}
	day := model.WeekdayOf(cmd.flags.now())

	options := make([]huh.Option[model.Weekday], len(model.Week))
	for i, d := range model.Week {
		options[i] = huh.NewOption(d.String(), d)
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}).
				Value(&input.Title),
			huh.NewText().
				Title("Text").
				Description("Optional notes").
				Value(&input.Content),
			huh.NewSelect[model.Weekday]().
				Title("Day").
				Options(options...).
				Value(&day),
		),
	).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return input, true, nil
		}
		return input, false, fmt.Errorf("form: %w", err)
	}

	input.Day = day
	return input, false, nil
}
