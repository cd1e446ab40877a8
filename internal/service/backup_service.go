package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"weekly-planner/internal/repository"
)

const (
	backupPrefix = "weekly_planner-"
	backupSuffix = ".db"
)

// BackupService writes timestamped snapshots of the store and keeps the
// newest few.
type BackupService struct {
	db   *gorm.DB
	dir  string
	keep int
	log  zerolog.Logger
}

func NewBackupService(db *gorm.DB, dir string, keep int, log zerolog.Logger) *BackupService {
	if keep < 1 {
		keep = 1
	}
	return &BackupService{db: db, dir: dir, keep: keep, log: log}
}

// Run writes one snapshot named after now and prunes old ones.
func (s *BackupService) Run(ctx context.Context, now time.Time) (string, error) {
	path := filepath.Join(s.dir, backupPrefix+now.Format("20060102-150405")+backupSuffix)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("backup %s already exists", path)
	}

	if err := repository.Snapshot(ctx, s.db, path); err != nil {
		return "", err
	}
	s.log.Info().Str("path", path).Msg("backup written")

	removed, err := s.prune()
	if err != nil {
		return path, fmt.Errorf("prune backups: %w", err)
	}
	if len(removed) > 0 {
		s.log.Debug().Strs("removed", removed).Msg("old backups pruned")
	}
	return path, nil
}

// List returns existing snapshots, newest first.
func (s *BackupService) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		names = append(names, name)
	}
	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(s.dir, name)
	}
	return paths, nil
}

func (s *BackupService) prune() ([]string, error) {
	paths, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(paths) <= s.keep {
		return nil, nil
	}

	var removed []string
	for _, path := range paths[s.keep:] {
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed = append(removed, path)
	}
	return removed, nil
}
