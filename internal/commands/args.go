package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"weekly-planner/internal/model"
)

// taskIDArg reads the task id from the first positional argument.
func taskIDArg(c *cli.Command) (uint, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(c.Args().First()), "#")
	if raw == "" {
		return 0, fmt.Errorf("task id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", c.Args().First())
	}
	return uint(id), nil
}

// restArgs joins the positional arguments after the first one.
func restArgs(c *cli.Command) string {
	args := c.Args().Slice()
	if len(args) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.Join(args[1:], " "))
}

func parseDay(raw string, flags *Flags) (model.Weekday, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "today") {
		return model.WeekdayOf(flags.now()), nil
	}
	day, ok := model.ParseWeekday(raw)
	if !ok {
		return "", &model.ValidationError{Field: "day", Reason: fmt.Sprintf("%q is not a weekday", raw)}
	}
	return day, nil
}

// printDay writes the current listing of one day.
func printDay(ctx context.Context, c *cli.Command, flags *Flags, day model.Weekday) error {
	now := flags.now()
	bucket, err := flags.Tasks.Day(ctx, day, now)
	if err != nil {
		return fmt.Errorf("load %s: %w", day, err)
	}
	renderDay(c.Root().Writer, bucket, now)
	return nil
}
