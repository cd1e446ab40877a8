package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/urfave/cli/v3"
)

type ExportCmd struct {
	flags *Flags
	out   string
	force bool
}

func NewExportCmd(flags *Flags) *ExportCmd {
	return &ExportCmd{flags: flags}
}

func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Save the text of a task to a file",
		ArgsUsage: "<id>",
		Description: `Writes the text of a task to a plain text file. The file is named after
the task title unless --out is given. Use --out - to print to stdout.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path",
				Destination: &cmd.out,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "overwrite an existing file",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	content, err := cmd.flags.Tasks.GetContent(ctx, id)
	if err != nil {
		return fmt.Errorf("export task %d: %w", id, err)
	}

	if cmd.out == "-" {
		_, err := fmt.Fprint(c.Root().Writer, content)
		return err
	}

	path := cmd.out
	if path == "" {
		task, err := cmd.flags.Tasks.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("export task %d: %w", id, err)
		}
		path = exportFileName(task.Title, task.ID)
	}

	if !cmd.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, pass --force to overwrite", path)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Saved #%d to %s\n", id, path)
	return nil
}

// exportFileName turns a title into a safe file name.
func exportFileName(title string, id uint) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.':
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = fmt.Sprintf("task-%d", id)
	}
	return name + ".txt"
}
