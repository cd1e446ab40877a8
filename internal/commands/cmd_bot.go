package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"weekly-planner/internal/bot"
	"weekly-planner/internal/logging"
	"weekly-planner/internal/service"
)

type BotCmd struct {
	flags    *Flags
	noBackup bool
}

func NewBotCmd(flags *Flags) *BotCmd {
	return &BotCmd{flags: flags}
}

func (cmd *BotCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "bot",
		Usage: "Serve the board over Telegram",
		Description: `Runs the Telegram bot until interrupted. Requires TELEGRAM_TOKEN; set
TELEGRAM_OWNER_ID to restrict the bot to your own account.

While the bot runs, snapshots are taken every BACKUP_INTERVAL_HOURS, or
daily at BACKUP_AT when it is set.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "no-backup",
				Usage:       "do not take scheduled backups",
				Destination: &cmd.noBackup,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *BotCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	b, err := bot.New(cfg.TelegramToken, cfg.TelegramOwnerID, cmd.flags.Tasks, cmd.flags.Week, logging.Component("bot"))
	if err != nil {
		return fmt.Errorf("start bot: %w", err)
	}

	if !cmd.noBackup {
		sched := service.NewSchedulerService(time.Local, logging.Component("scheduler"))
		log := logging.Component("backup")
		id, err := scheduleBackups(ctx, sched, cmd.flags.Backups, cfg.BackupAt, cfg.BackupInterval, log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		log.Debug().Time("next", sched.Next(id)).Msg("backup scheduler started")
	}

	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run bot: %w", err)
	}
	return nil
}
