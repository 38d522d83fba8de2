package client

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
)

// errWatchLimit stops a watch once --limit events were printed.
var errWatchLimit = errors.New("watch limit reached")

// NewLogCommand constructs the `log` command group and subcommands.
func NewLogCommand() *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Audit log operations"}
	logCmd.PersistentFlags().String("token", os.Getenv("AUDITLOG_TOKEN"), "Bearer token (jwt auth mode)")
	logCmd.PersistentFlags().String("account", os.Getenv("AUDITLOG_ACCOUNT"), "Caller account (header auth mode)")
	logCmd.PersistentFlags().String("account-header", "X-Audit-Account", "Header carrying --account")
	logCmd.PersistentFlags().String("encoding", "utf8", "Encoding of identifier and field flags: utf8|base64")
	logCmd.PersistentFlags().Bool("raw", false, "Print the wire message as protojson")

	logCmd.AddCommand(
		newLogSaveCommand(),
		newLogGetCommand(),
		newLogOwnerCommand(),
		newLogPeriodsCommand(),
		newLogWatchCommand(),
	)
	return logCmd
}

// newLogSaveCommand constructs the `log save` subcommand.
func newLogSaveCommand() *cobra.Command {
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Append an entry; the first writer of a log id becomes its owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, _ := cmd.Flags().GetString("encoding")
			raw, _ := cmd.Flags().GetBool("raw")
			ts, _ := cmd.Flags().GetString("timestamp")
			if ts == "" {
				ts = time.Now().UTC().Format(time.RFC3339)
				if enc == "base64" {
					return errors.New("--timestamp is required with --encoding base64")
				}
			}
			var req auditlogv1.SaveRequest
			for _, f := range []struct {
				name  string
				value string
				dst   *[]byte
			}{
				{"log-id", flagString(cmd, "log-id"), &req.LogID},
				{"period", flagString(cmd, "period"), &req.Period},
				{"title", flagString(cmd, "title"), &req.Title},
				{"content", flagString(cmd, "content"), &req.Content},
				{"timestamp", ts, &req.Timestamp},
			} {
				b, err := decodeArg(f.name, f.value, enc)
				if err != nil {
					return err
				}
				*f.dst = b
			}
			res, err := getTransport(cmd).Save(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), raw, res.ToStruct(), map[string]any{
				"status":   "OK",
				"outcome":  res.Outcome,
				"event_id": res.EventID,
			})
		},
	}
	saveCmd.Flags().String("log-id", "", "Log identifier")
	saveCmd.Flags().String("period", "", "Period identifier")
	saveCmd.Flags().String("title", "", "Entry title")
	saveCmd.Flags().String("content", "", "Entry content")
	saveCmd.Flags().String("timestamp", "", "Entry timestamp (opaque; defaults to now, RFC3339)")
	_ = saveCmd.MarkFlagRequired("log-id")
	_ = saveCmd.MarkFlagRequired("period")
	return saveCmd
}

// newLogGetCommand constructs the `log get` subcommand.
func newLogGetCommand() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the ordered entries of a (log id, period) key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, _ := cmd.Flags().GetString("encoding")
			raw, _ := cmd.Flags().GetBool("raw")
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			logID, err := decodeArg("log-id", flagString(cmd, "log-id"), enc)
			if err != nil {
				return err
			}
			period, err := decodeArg("period", flagString(cmd, "period"), enc)
			if err != nil {
				return err
			}
			res, err := getTransport(cmd).Retrieve(cmd.Context(), auditlogv1.RetrieveRequest{LogID: logID, Period: period, Filter: filter, Limit: limit})
			if err != nil {
				return err
			}
			if raw {
				return printResult(cmd.OutOrStdout(), true, res.ToStruct(), nil)
			}
			for _, e := range res.Entries {
				view := map[string]any{"index": e.Index, "reporter": e.Reporter}
				putBytes(view, "title", e.Title)
				putBytes(view, "content", e.Content)
				putBytes(view, "timestamp", e.Timestamp)
				if err := printResult(cmd.OutOrStdout(), false, nil, view); err != nil {
					return err
				}
			}
			return nil
		},
	}
	getCmd.Flags().String("log-id", "", "Log identifier")
	getCmd.Flags().String("period", "", "Period identifier")
	getCmd.Flags().String("filter", "", "CEL filter over title, content, timestamp, reporter, index")
	getCmd.Flags().Int("limit", 0, "Return at most N entries (0 = all)")
	_ = getCmd.MarkFlagRequired("log-id")
	_ = getCmd.MarkFlagRequired("period")
	return getCmd
}

// newLogOwnerCommand constructs the `log owner` subcommand.
func newLogOwnerCommand() *cobra.Command {
	ownerCmd := &cobra.Command{
		Use:   "owner",
		Short: "Print the owner of a log id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, _ := cmd.Flags().GetString("encoding")
			raw, _ := cmd.Flags().GetBool("raw")
			logID, err := decodeArg("log-id", flagString(cmd, "log-id"), enc)
			if err != nil {
				return err
			}
			res, err := getTransport(cmd).Owner(cmd.Context(), logID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), raw, res.ToStruct(), map[string]any{"owner": res.Owner, "owned": res.Owned})
		},
	}
	ownerCmd.Flags().String("log-id", "", "Log identifier")
	_ = ownerCmd.MarkFlagRequired("log-id")
	return ownerCmd
}

// newLogPeriodsCommand constructs the `log periods` subcommand.
func newLogPeriodsCommand() *cobra.Command {
	periodsCmd := &cobra.Command{
		Use:   "periods",
		Short: "List the periods recorded under a log id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, _ := cmd.Flags().GetString("encoding")
			raw, _ := cmd.Flags().GetBool("raw")
			logID, err := decodeArg("log-id", flagString(cmd, "log-id"), enc)
			if err != nil {
				return err
			}
			res, err := getTransport(cmd).Periods(cmd.Context(), logID)
			if err != nil {
				return err
			}
			if raw {
				return printResult(cmd.OutOrStdout(), true, res.ToStruct(), nil)
			}
			w := cmd.OutOrStdout()
			for _, p := range res.Periods {
				if enc == "base64" {
					_, _ = fmt.Fprintln(w, base64.StdEncoding.EncodeToString(p))
					continue
				}
				_, _ = fmt.Fprintln(w, string(p))
			}
			return nil
		},
	}
	periodsCmd.Flags().String("log-id", "", "Log identifier")
	_ = periodsCmd.MarkFlagRequired("log-id")
	return periodsCmd
}

// newLogWatchCommand constructs the `log watch` subcommand.
func newLogWatchCommand() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream audit notifications as they are committed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetBool("raw")
			after, _ := cmd.Flags().GetUint64("after")
			group, _ := cmd.Flags().GetString("group")
			limit, _ := cmd.Flags().GetInt("limit")
			since, err := parseSince(flagString(cmd, "since"))
			if err != nil {
				return err
			}
			printed := 0
			err = getTransport(cmd).Watch(cmd.Context(), auditlogv1.WatchRequest{After: after, SinceMs: since, Group: group}, func(ev auditlogv1.Event) error {
				view := map[string]any{
					"id":       ev.ID,
					"seq":      ev.Seq,
					"reporter": ev.Reporter,
					"outcome":  ev.Outcome,
					"at":       time.UnixMilli(ev.AtMs).UTC().Format(time.RFC3339Nano),
				}
				putBytes(view, "log_id", ev.LogID)
				putBytes(view, "period", ev.Period)
				if err := printResult(cmd.OutOrStdout(), raw, ev.ToStruct(), view); err != nil {
					return err
				}
				printed++
				if limit > 0 && printed >= limit {
					return errWatchLimit
				}
				return nil
			})
			if errors.Is(err, errWatchLimit) {
				return nil
			}
			return err
		},
	}
	watchCmd.Flags().Uint64("after", 0, "Resume after this notification sequence")
	watchCmd.Flags().String("since", "", "Start at timestamp: RFC3339 or ms")
	watchCmd.Flags().String("group", "", "Durable cursor name; resumes where the group left off")
	watchCmd.Flags().Int("limit", 0, "Stop after N events (0 = infinite)")
	return watchCmd
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
