package main

import (
	"fmt"
	"time"

	"acceptrec.co.uk/timesheets/security"
	"github.com/spf13/cobra"
)

var (
	tokenUser   string
	tokenEmail  string
	tokenName   string
	tokenRole   string
	tokenClient string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an identity token for the API",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email address")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(security.RoleDriver), "driver, admin, super_admin or client")
	tokenCmd.Flags().StringVar(&tokenClient, "client", "", "client id, required for the client role")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	secret, err := security.DecodeSecret(cfg.Auth.SigningSecret)
	if err != nil {
		return err
	}

	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := security.CreateIdentityToken(security.Principal{
		UserID:   tokenUser,
		Email:    tokenEmail,
		Name:     tokenName,
		Role:     security.Role(tokenRole),
		ClientID: tokenClient,
	}, secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
