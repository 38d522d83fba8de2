package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	transports "github.com/rzbill/auditlog/internal/cmd/client/transports"
)

// grpcAddrFromEnv returns the gRPC server address from AUDITLOG_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("AUDITLOG_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPCContext dials the gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// getTransport builds the gRPC transport with credentials from the
// persistent flags of cmd.
func getTransport(cmd *cobra.Command) transports.AuditTransport {
	token, _ := cmd.Flags().GetString("token")
	account, _ := cmd.Flags().GetString("account")
	header, _ := cmd.Flags().GetString("account-header")
	return transports.NewGrpcTransport(dialGRPCContext, transports.Credentials{Token: token, Account: account, Header: header})
}

// decodeArg interprets a flag value as raw text or base64.
func decodeArg(name, value, encoding string) ([]byte, error) {
	switch encoding {
	case "", "utf8":
		return []byte(value), nil
	case "base64":
		b, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", name, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("invalid --encoding %q; use utf8|base64", encoding)
	}
}

// putBytes stores b under key as text when it is valid UTF-8 and under
// key_b64 otherwise.
func putBytes(out map[string]any, key string, b []byte) {
	if utf8.Valid(b) {
		out[key] = string(b)
		return
	}
	out[key+"_b64"] = base64.StdEncoding.EncodeToString(b)
}

// printResult writes view as one JSON line, or the wire message as
// protojson when raw is set.
func printResult(w io.Writer, raw bool, wire *structpb.Struct, view map[string]any) error {
	if raw {
		b, err := protojson.Marshal(wire)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	return json.NewEncoder(w).Encode(view)
}

// parseSince accepts unix milliseconds or RFC3339.
func parseSince(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	return 0, fmt.Errorf("invalid --since; expected ms or RFC3339")
}
