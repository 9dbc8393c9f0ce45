package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/models"
)

// MigrationFiles holds the postgres schema as NNN_name.up.sql / NNN_name.down.sql pairs.
//
//go:embed migrations/*.sql
var MigrationFiles embed.FS

// Migration is one numbered schema change.
type Migration struct {
	Name string
	Up   string
	Down string
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Name      string
	AppliedAt *time.Time
}

type appliedMigration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:255;not null;uniqueIndex"`
	AppliedAt time.Time `gorm:"not null"`
}

func (appliedMigration) TableName() string { return "migrations" }

// LoadMigrations reads the migration pairs under the migrations directory of
// fsys, sorted by name.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byName := make(map[string]*Migration)
	for _, entry := range entries {
		file := entry.Name()
		var name string
		var up bool
		switch {
		case strings.HasSuffix(file, ".up.sql"):
			name, up = strings.TrimSuffix(file, ".up.sql"), true
		case strings.HasSuffix(file, ".down.sql"):
			name = strings.TrimSuffix(file, ".down.sql")
		default:
			continue
		}

		content, err := fs.ReadFile(fsys, "migrations/"+file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		m, ok := byName[name]
		if !ok {
			m = &Migration{Name: name}
			byName[name] = m
		}
		if up {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byName))
	for _, m := range byName {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s has no up script", m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Name < migrations[j].Name
	})
	return migrations, nil
}

// RunMigrations brings the schema up to date. SQLite databases are migrated
// from the models instead of the postgres scripts.
func RunMigrations(db *gorm.DB, fsys fs.FS) error {
	if db.Dialector.Name() == "sqlite" {
		slog.Debug("using GORM auto-migration for SQLite")
		return db.AutoMigrate(
			&models.User{},
			&models.UserProfile{},
			&model.Recipe{},
		)
	}

	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int64
		if err := db.Model(&appliedMigration{}).Where("name = ?", m.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			slog.Debug("skipping migration, already applied", "migration", m.Name)
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.Up).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", m.Name, err)
			}
			return tx.Create(&appliedMigration{Name: m.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return err
		}
		slog.Info("applied migration", "migration", m.Name)
	}
	return nil
}

// Rollback reverts the most recently applied migration and returns its name,
// or "" when nothing is applied.
func Rollback(db *gorm.DB, fsys fs.FS) (string, error) {
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return "", err
	}
	if err := db.AutoMigrate(&appliedMigration{}); err != nil {
		return "", fmt.Errorf("failed to create migrations table: %w", err)
	}

	var last appliedMigration
	res := db.Order("name DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", nil
	}

	var down string
	for _, m := range migrations {
		if m.Name == last.Name {
			down = m.Down
		}
	}
	if down == "" {
		return "", fmt.Errorf("migration %s has no down script", last.Name)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(down).Error; err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", last.Name, err)
		}
		return tx.Delete(&appliedMigration{}, last.ID).Error
	})
	if err != nil {
		return "", err
	}
	slog.Info("reverted migration", "migration", last.Name)
	return last.Name, nil
}

// Status lists every known migration with its application time, if any.
func Status(db *gorm.DB, fsys fs.FS) ([]MigrationStatus, error) {
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&appliedMigration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []appliedMigration
	if err := db.Find(&applied).Error; err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(applied))
	for _, a := range applied {
		at[a.Name] = a.AppliedAt
	}

	out := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		status := MigrationStatus{Name: m.Name}
		if t, ok := at[m.Name]; ok {
			status.AppliedAt = &t
		}
		out = append(out, status)
	}
	return out, nil
}
