package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the audit log client.
// It registers the log and token command groups.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "auditlog",
		Short: "Audit log client commands",
	}
	root.AddCommand(NewLogCommand())
	root.AddCommand(NewTokenCommand())
	return root
}
