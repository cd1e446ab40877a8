package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"weekly-planner/internal/commands"
	"weekly-planner/internal/config"
	"weekly-planner/internal/logging"
	"weekly-planner/internal/repository"
	"weekly-planner/internal/service"
)

// Populated at build-time via -ldflags.
var (
	version = "dev"
	commit  = "HEAD"
)

func build() string {
	v, c := version, commit
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					c = s.Value
				}
			}
		}
	}
	if len(c) > 7 {
		c = c[:7]
	}
	return fmt.Sprintf("%s (%s)", v, c)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var (
		logCloser func()
		database  *gorm.DB
	)

	flags := &commands.Flags{Config: cfg}

	app := &cli.Command{
		Name:      "weeklyplanner",
		Usage:     "Plan your week, one day at a time",
		UsageText: "weeklyplanner [global options] command [command options]",
		Description: `A personal weekly task board. Tasks are planned for a day of the week,
carry free-form text and are either active or completed.

Run 'weeklyplanner' with no arguments to see the current week.
Run 'weeklyplanner bot' to serve the same board over Telegram.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "db",
				Usage:       "path to the SQLite task store",
				Sources:     cli.EnvVars("DATABASE_URL"),
				Value:       cfg.DatabaseURL,
				Destination: &flags.DatabaseURL,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       cfg.LogLevel,
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("LOG_FILE"),
				Value:       cfg.LogFile,
				Destination: &flags.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			database, err = repository.NewDB(flags.DatabaseURL, logging.Component("db"))
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			taskRepo := repository.NewTaskRepository(database)
			flags.Tasks = service.NewTaskService(taskRepo, logging.Component("tasks"))
			flags.Week = service.NewWeekService(taskRepo)
			flags.Backups = service.NewBackupService(database, cfg.BackupDir, cfg.BackupKeep, logging.Component("backup"))

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if database != nil {
				if err := repository.Close(database); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	viewCmd := commands.NewViewCmd(flags)

	app = viewCmd.Register(app)
	app = commands.NewAddCmd(flags).Register(app)
	app = commands.NewEditCmd(flags).Register(app)
	app = commands.NewStatusCmd(flags).Register(app)
	app = commands.NewFindCmd(flags).Register(app)
	app = commands.NewClearCmd(flags).Register(app)
	app = commands.NewExportCmd(flags).Register(app)
	app = commands.NewBackupCmd(flags).Register(app)
	app = commands.NewBotCmd(flags).Register(app)

	app.Action = viewCmd.Run

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}
