package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwtmw "fingerprint_access/internal/platform/jwt"
)

var (
	issueDevice string
	issueTTL    time.Duration
)

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue a device token for a scanner",
	Long: `Signs a device scoped token with JWT_SECRET. The scanner sends it as
a Bearer token on every recognition request.`,
	Args: cobra.NoArgs,
	RunE: runIssueToken,
}

func init() {
	issueTokenCmd.Flags().StringVar(&issueDevice, "device", "", "scanner device id (required)")
	issueTokenCmd.Flags().DurationVar(&issueTTL, "ttl", 30*24*time.Hour, "token lifetime")
	_ = issueTokenCmd.MarkFlagRequired("device")
	rootCmd.AddCommand(issueTokenCmd)
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if issueTTL <= 0 {
		return fmt.Errorf("invalid ttl %s", issueTTL)
	}
	token, err := jwtmw.NewGenerator(secret, issueTTL).GenerateToken(issueDevice, jwtmw.ScopeDevice)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
