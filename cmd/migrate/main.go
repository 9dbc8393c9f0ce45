// Command migrate applies, reverts and lists the database schema migrations.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/logging"
)

var dsn string

var (
	appliedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"})
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"})
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the recipebox database schema",
	Long: `migrate applies the embedded SQL migrations to the configured database.

The connection is read from the usual DB_* settings unless --dsn is given.

Examples:
  migrate up        # Apply pending migrations
  migrate rollback  # Revert the last applied migration
  migrate status    # List migrations and when they were applied`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(os.Getenv("LOG_LEVEL"))
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		return database.RunMigrations(db, database.MigrationFiles)
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the most recently applied migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		name, err := database.Rollback(db, database.MigrationFiles)
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("nothing to roll back"))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reverted %s\n", name)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and their state",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		statuses, err := database.Status(db, database.MigrationFiles)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := pendingStyle.Render("pending")
			if s.AppliedAt != nil {
				state = appliedStyle.Render("applied") + " " + mutedStyle.Render(s.AppliedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", s.Name, state)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (overrides DB_* settings)")
	rootCmd.AddCommand(upCmd, rollbackCmd, statusCmd)
}

func openDB() (*gorm.DB, error) {
	conn := dsn
	if conn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		conn = cfg.DSN()
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        conn,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
