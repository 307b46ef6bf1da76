package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/pathforge-backend/internal/services"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawUser, _ := cmd.Flags().GetString("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		userID := uuid.New()
		if rawUser != "" {
			parsed, err := uuid.Parse(rawUser)
			if err != nil {
				return fmt.Errorf("--user must be a uuid: %w", err)
			}
			userID = parsed
		}

		auth := services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL)
		tok, err := auth.MintToken(userID, ttl)
		if err != nil {
			return err
		}
		if ttl <= 0 {
			ttl = auth.GetAccessTTL()
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "user:    %s\n", userID)
		fmt.Fprintf(out, "expires: %s\n", time.Now().Add(ttl).UTC().Format(time.RFC3339))
		fmt.Fprintln(out, tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "user id to embed in the token (random when empty)")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to ACCESS_TOKEN_TTL)")
	rootCmd.AddCommand(tokenCmd)
}
