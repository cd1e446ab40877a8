package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ClearCmd struct {
	flags *Flags
	yes   bool
}

func NewClearCmd(flags *Flags) *ClearCmd {
	return &ClearCmd{flags: flags}
}

func (cmd *ClearCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "clear",
		Usage: "Delete every task",
		Description: `Empties the board, active and completed tasks alike. Task ids are not
reused afterwards. Take a backup first if you may want the tasks back.`,
		Flags: []cli.Flag{
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

func (cmd *ClearCmd) run(ctx context.Context, c *cli.Command) error {
	ok, err := cmd.flags.confirm(cmd.yes, "Delete every task?")
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(c.Root().Writer, "Nothing deleted")
		return nil
	}

	count, err := cmd.flags.Tasks.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Deleted %d tasks\n", count)
	return nil
}
