package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/auditlog/internal/cmd/client"
	serverrun "github.com/rzbill/auditlog/internal/cmd/server"
	cfgpkg "github.com/rzbill/auditlog/internal/config"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "auditlog",
		Short: "Audit log server and client",
		Long:  "auditlog is a single-binary append-only audit log. This CLI runs the server and talks to it.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverCmd.AddCommand(newServerStartCommand())
	rootCmd.AddCommand(serverCmd)

	rootCmd.AddCommand(clientcmd.NewLogCommand())
	rootCmd.AddCommand(clientcmd.NewTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerStartCommand() *cobra.Command {
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the audit log server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dataDir, _ := cmd.Flags().GetString("data-dir")
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			httpAddr, _ := cmd.Flags().GetString("http")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:  dataDir,
				GRPCAddr: grpcAddr,
				HTTPAddr: httpAddr,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	startCmd.Flags().String("config", os.Getenv("AUDITLOG_CONFIG"), "Path to a JSON config file")
	startCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	startCmd.Flags().String("grpc", ":50051", "gRPC listen address")
	startCmd.Flags().String("http", ":8080", "HTTP listen address")
	startCmd.Flags().String("backend", "", "Storage backend: pebble|sqlite|memory")
	startCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	startCmd.Flags().Int("fsync-interval-ms", 0, "When --fsync=interval, group-commit window in ms")
	startCmd.Flags().String("auth", "", "Auth mode: jwt|header")
	startCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	startCmd.Flags().String("log-format", "", "Log format: text|json")
	return startCmd
}

// loadConfig layers defaults, the config file, AUDITLOG_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)

	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("backend", &cfg.Storage.Backend)
	str("fsync", &cfg.Storage.Fsync)
	str("auth", &cfg.Auth.Mode)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	if flags.Changed("fsync-interval-ms") {
		cfg.Storage.FsyncIntervalMs, _ = flags.GetInt("fsync-interval-ms")
	}
	if _, err := logpkg.ParseLevel(cfg.Log.Level); err != nil {
		return cfgpkg.Config{}, fmt.Errorf("invalid --log-level: %w", err)
	}
	return cfg, nil
}
