package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"weekly-planner/internal/logging"
	"weekly-planner/internal/service"
)

type BackupCmd struct {
	flags *Flags
	list  bool
	every time.Duration
	at    string
}

func NewBackupCmd(flags *Flags) *BackupCmd {
	return &BackupCmd{flags: flags}
}

func (cmd *BackupCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "backup",
		Usage: "Snapshot the task store",
		Description: `Writes a consistent copy of the database into BACKUP_DIR and keeps the
newest BACKUP_KEEP copies.

With --every or --at the command keeps running and takes snapshots on that
schedule until interrupted.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "list",
				Aliases:     []string{"l"},
				Usage:       "list existing snapshots, newest first",
				Destination: &cmd.list,
			},
			&cli.DurationFlag{
				Name:        "every",
				Usage:       "repeat at this interval (e.g. 6h)",
				Destination: &cmd.every,
			},
			&cli.StringFlag{
				Name:        "at",
				Usage:       "repeat daily at this local time (HH:MM)",
				Destination: &cmd.at,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *BackupCmd) run(ctx context.Context, c *cli.Command) error {
	w := c.Root().Writer

	if cmd.list {
		paths, err := cmd.flags.Backups.List()
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}
		if len(paths) == 0 {
			_, _ = fmt.Fprintln(w, "No backups yet")
			return nil
		}
		for _, path := range paths {
			_, _ = fmt.Fprintln(w, path)
		}
		return nil
	}

	if cmd.every <= 0 && cmd.at == "" {
		path, err := cmd.flags.Backups.Run(ctx, cmd.flags.now())
		if err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		_, _ = fmt.Fprintf(w, "Backup written to %s\n", path)
		return nil
	}

	log := logging.Component("backup")
	sched := service.NewSchedulerService(time.Local, logging.Component("scheduler"))
	id, err := scheduleBackups(ctx, sched, cmd.flags.Backups, cmd.at, cmd.every, log)
	if err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	_, _ = fmt.Fprintf(w, "Next backup at %s, press Ctrl+C to stop\n", sched.Next(id).Format("Jan 2 15:04"))
	<-ctx.Done()
	return nil
}

// scheduleBackups registers the snapshot job, daily at the given HH:MM when
// set, otherwise every interval.
func scheduleBackups(ctx context.Context, sched *service.SchedulerService, backups *service.BackupService, at string, every time.Duration, log zerolog.Logger) (cron.EntryID, error) {
	job := func() {
		path, err := backups.Run(ctx, time.Now())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Err(err).Msg("scheduled backup failed")
			return
		}
		log.Info().Str("path", path).Msg("scheduled backup written")
	}

	if at != "" {
		id, err := sched.ScheduleDaily(at, job)
		if err != nil {
			return 0, fmt.Errorf("schedule daily backup: %w", err)
		}
		log.Info().Str("at", at).Msg("daily backups scheduled")
		return id, nil
	}

	id, err := sched.ScheduleInterval(every, job)
	if err != nil {
		return 0, fmt.Errorf("schedule backups: %w", err)
	}
	log.Info().Dur("every", every).Msg("periodic backups scheduled")
	return id, nil
}
