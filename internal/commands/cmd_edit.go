package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type EditCmd struct {
	flags    *Flags
	content  string
	fromFile string
}

func NewEditCmd(flags *Flags) *EditCmd {
	return &EditCmd{flags: flags}
}

func (cmd *EditCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "edit",
			Usage:     "Replace the text of a task",
			ArgsUsage: "<id>",
			Description: `Replaces the free-form text of a task.

The new text comes from --content, from --file, from stdin when it is not a
terminal, or from an editor form otherwise.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "content",
					Aliases:     []string{"c"},
					Usage:       "new text",
					Destination: &cmd.content,
				},
				&cli.StringFlag{
					Name:        "file",
					Aliases:     []string{"f"},
					Usage:       "read the new text from a file",
					Destination: &cmd.fromFile,
				},
			},
			Action: cmd.runEdit,
		},
		&cli.Command{
			Name:      "rename",
			Usage:     "Change the title of a task",
			ArgsUsage: "<id> <title>",
			Action:    cmd.runRename,
		},
		&cli.Command{
			Name:      "move",
			Aliases:   []string{"mv"},
			Usage:     "Move a task to another day",
			ArgsUsage: "<id> <day>",
			Action:    cmd.runMove,
		},
	)
	return app
}

func (cmd *EditCmd) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	task, err := cmd.flags.Tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("edit task %d: %w", id, err)
	}

	content, err := cmd.readContent(c, task.Content)
	if err != nil {
		return err
	}

	if err := cmd.flags.Tasks.UpdateContent(ctx, id, content); err != nil {
		return fmt.Errorf("edit task %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Saved text of #%d\n\n", id)
	return printDay(ctx, c, cmd.flags, task.Day)
}

func (cmd *EditCmd) readContent(c *cli.Command, current string) (string, error) {
	switch {
	case c.IsSet("content"):
		return cmd.content, nil
	case cmd.fromFile != "":
		data, err := os.ReadFile(cmd.fromFile)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	}

	if r := c.Root().Reader; r != nil && r != os.Stdin {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return string(data), nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	content := current
	err := huh.NewText().
		Title("Text").
		Value(&content).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return current, nil
		}
		return "", fmt.Errorf("form: %w", err)
	}
	return content, nil
}

func (cmd *EditCmd) runRename(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	if err := cmd.flags.Tasks.Rename(ctx, id, restArgs(c)); err != nil {
		return fmt.Errorf("rename task %d: %w", id, err)
	}

	task, err := cmd.flags.Tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("rename task %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Renamed #%d to %q\n\n", id, task.Title)
	return printDay(ctx, c, cmd.flags, task.Day)
}

func (cmd *EditCmd) runMove(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	day, err := parseDay(restArgs(c), cmd.flags)
	if err != nil {
		return err
	}

	before, err := cmd.flags.Tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("move task %d: %w", id, err)
	}

	if err := cmd.flags.Tasks.Move(ctx, id, day); err != nil {
		return fmt.Errorf("move task %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Moved #%d from %s to %s\n\n", id, before.Day, day)
	return printDay(ctx, c, cmd.flags, day)
}
