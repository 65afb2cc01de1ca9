// AngelaMos | 2026
// migrate.go

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // process exits right after

		return migrations.Up(db.DB.DB)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations, all of them when steps is omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}

		db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // process exits right after

		return migrations.Down(db.DB.DB, steps)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func openDatabase(cmd *cobra.Command) (*core.Database, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return core.NewDatabase(cmd.Context(), cfg.Database)
}
