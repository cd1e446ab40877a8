package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"weekly-planner/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is a single additive schema step.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// schemaMigration records an applied step.
type schemaMigration struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"not null"`
	AppliedAt int64  `gorm:"not null"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// guards let a step detect that an older layout already has what it adds.
// Stores created before versioning carry no schema_migrations rows, so every
// step runs once against them and must tolerate a partial layout.
var guards = map[string]func(tx *gorm.DB) (bool, error){
	"add_day_column":    columnExists("day"),
	"add_status_column": columnExists("status"),
}

// loadMigrations parses the embedded SQL files into a sorted slice.
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	seen := make(map[int]bool)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fname := entry.Name()

		version, name, err := parseFilename(fname)
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", fname, err)
		}
		if seen[version] {
			return nil, fmt.Errorf("duplicate migration for version %04d", version)
		}
		seen[version] = true

		content, err := fs.ReadFile(migrationsFS, "migrations/"+fname)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fname, err)
		}

		migrations = append(migrations, Migration{Version: version, Name: name, UpSQL: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseFilename extracts version and name from "NNNN_name.sql".
func parseFilename(filename string) (int, string, error) {
	if !strings.HasSuffix(filename, ".sql") {
		return 0, "", fmt.Errorf("expected .sql suffix")
	}
	parts := strings.SplitN(strings.TrimSuffix(filename, ".sql"), "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", fmt.Errorf("expected format NNNN_name.sql")
	}

	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("version %q is not a valid integer: %w", parts[0], err)
	}
	if version <= 0 {
		return 0, "", fmt.Errorf("version must be positive, got %d", version)
	}

	return version, parts[1], nil
}

// Migrate applies every pending step in version order. Each step and its
// bookkeeping row commit together; applied steps are skipped on later opens.
func Migrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		if err := applyMigration(db, m, log); err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// AppliedMigrations lists the recorded step versions in order.
func AppliedMigrations(ctx context.Context, db *gorm.DB) ([]int, error) {
	var versions []int
	if err := db.WithContext(ctx).Model(&schemaMigration{}).Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("querying applied versions: %w", err)
	}
	return versions, nil
}

func appliedVersions(db *gorm.DB) (map[int]bool, error) {
	var versions []int
	if err := db.Model(&schemaMigration{}).Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("querying applied versions: %w", err)
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func applyMigration(db *gorm.DB, m Migration, log zerolog.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		skip := false
		if guard, ok := guards[m.Name]; ok {
			present, err := guard(tx)
			if err != nil {
				return err
			}
			skip = present
		}

		if skip {
			log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("migration already satisfied")
		} else {
			log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
			if err := tx.Exec(m.UpSQL).Error; err != nil {
				return fmt.Errorf("executing SQL: %w", err)
			}
		}

		record := schemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UnixNano()}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}
		return nil
	})
}

// columnExists probes the tasks table with a minimal read and reports
// whether the named column came back.
func columnExists(name string) func(tx *gorm.DB) (bool, error) {
	return func(tx *gorm.DB) (bool, error) {
		columns, err := tx.Migrator().ColumnTypes(&model.Task{})
		if err != nil {
			return false, fmt.Errorf("probe tasks columns: %w", err)
		}
		for _, column := range columns {
			if strings.EqualFold(column.Name(), name) {
				return true, nil
			}
		}
		return false, nil
	}
}
