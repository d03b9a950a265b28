package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator bearer token for the HTTP API",
	Long:  `Signs a token with JWT_SECRET. Tokens without the run scope can read insights and events but cannot start runs.`,
	RunE:  runToken,
}

var (
	tokenOperator string
	tokenScopes   []string
)

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "Operator name recorded as the token subject")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", nil, "Scopes to grant (repeatable, e.g. --scope run)")
	_ = tokenCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken(tokenOperator, tokenScopes...)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
