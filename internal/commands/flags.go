package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"weekly-planner/internal/config"
	"weekly-planner/internal/service"
)

type Flags struct {
	DatabaseURL string
	LogLevel    string
	LogFile     string

	// Config is loaded before the command line is parsed and is available
	// to every command.
	Config config.Config

	// Populated in the Before hook once the store is open.
	Tasks   *service.TaskService
	Week    *service.WeekService
	Backups *service.BackupService

	// Now and Confirm are replaced in tests.
	Now     func() time.Time
	Confirm func(title string) (bool, error)
}

func (f *Flags) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// confirm asks the user a yes/no question. yes skips the prompt.
func (f *Flags) confirm(yes bool, title string) (bool, error) {
	if yes {
		return true, nil
	}
	if f.Confirm != nil {
		return f.Confirm(title)
	}
	return promptConfirm(title)
}

var errNotInteractive = errors.New("stdin is not a terminal, pass --yes to confirm")

func promptConfirm(title string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errNotInteractive
	}

	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}
