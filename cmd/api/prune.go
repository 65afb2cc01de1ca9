// AngelaMos | 2026
// prune.go

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/recipe-shop/internal/auth"
	"github.com/carterperez-dev/recipe-shop/internal/core"
)

var pruneGrace time.Duration

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete refresh tokens that expired before the grace window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := core.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // process exits right after

		// Pruning never signs or verifies tokens, so neither the JWT
		// manager nor redis is needed.
		svc := auth.NewService(auth.NewRepository(db.DB), nil, nil, nil)

		deleted, err := svc.PruneExpiredTokens(ctx, pruneGrace)
		if err != nil {
			return err
		}

		logger.Info("expired refresh tokens pruned",
			"deleted", deleted,
			"grace", pruneGrace.String(),
		)
		return nil
	},
}

func init() {
	pruneTokensCmd.Flags().DurationVar(&pruneGrace, "grace", 24*time.Hour, "keep tokens expired less than this long ago")
}
