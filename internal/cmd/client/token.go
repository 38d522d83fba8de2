package client

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rzbill/auditlog/internal/audit"
	"github.com/rzbill/auditlog/internal/auth"
)

// NewTokenCommand constructs the `token` command group.
func NewTokenCommand() *cobra.Command {
	tokenCmd := &cobra.Command{Use: "token", Short: "Bearer token helpers"}
	tokenCmd.AddCommand(newTokenIssueCommand())
	return tokenCmd
}

// newTokenIssueCommand mints an HS256 token for a subject. The secret must
// match the server's auth.secret.
func newTokenIssueCommand() *cobra.Command {
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint an HS256 bearer token for an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			secret, _ := cmd.Flags().GetString("secret")
			issuer, _ := cmd.Flags().GetString("issuer")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if secret == "" {
				return errors.New("--secret (or AUDITLOG_AUTH_SECRET) is required")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}
			tok, err := auth.IssueToken(secret, issuer, audit.AccountID(subject), ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	issueCmd.Flags().String("subject", "", "Account the token authenticates")
	issueCmd.Flags().String("secret", os.Getenv("AUDITLOG_AUTH_SECRET"), "HS256 signing secret")
	issueCmd.Flags().String("issuer", "auditlog", "Token issuer; must match the server's auth.issuer")
	issueCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("subject")
	return issueCmd
}
