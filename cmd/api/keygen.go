// AngelaMos | 2026
// keygen.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/recipe-shop/internal/auth"
)

var (
	privateKeyPath string
	publicKeyPath  string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ES256 key pair for signing access tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := auth.GenerateKeyPair(privateKeyPath, publicKeyPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privateKeyPath, publicKeyPath)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&privateKeyPath, "private", "keys/private.pem", "private key output path")
	keygenCmd.Flags().StringVar(&publicKeyPath, "public", "keys/public.pem", "public key output path")
}
