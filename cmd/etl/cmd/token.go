package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ougirez/premiums/internal/pkg/utils"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Mint a token for POST /api/v1/admin/import",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.AdminSecret == "" {
			return errors.New("admin secret is not configured (ADMIN_JWT_SECRET)")
		}

		token, err := utils.GenerateAdminToken(cfg.Auth.AdminSecret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "etl", "token subject, logged by the API")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
