package main

import (
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/eco-adventures-backend/internal/config"
	"github.com/iliyamo/eco-adventures-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the MySQL schema migrations",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(database.Up), string(database.Down)},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := database.Direction(args[0])
		if dir != database.Up && dir != database.Down {
			return fmt.Errorf("unknown direction %q, want up or down", args[0])
		}
		cfg := config.Load()
		if cfg.DBDriver != database.DriverMySQL {
			return fmt.Errorf("migrations only apply to mysql; %s schemas are created on start", cfg.DBDriver)
		}
		logger := newLogger(cfg)
		if err := runMigrations(cfg, dir); err != nil {
			return err
		}
		logger.Infoj(log.JSON{"msg": "migrations applied", "direction": string(dir)})
		return nil
	},
}

// runMigrations opens a dedicated connection because the migrator closes
// the handle it is given.
func runMigrations(cfg config.Config, dir database.Direction) error {
	db, err := database.OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	return database.Migrate(db, cfg.DBName, dir)
}
