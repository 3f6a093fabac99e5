// Command parleyd is the relay server. It accepts client connections,
// performs the key exchange and authentication, and routes chat traffic
// between authenticated sessions.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"parley/internal/audit"
	"parley/internal/config"
	"parley/internal/credential"
	"parley/internal/logx"
	"parley/internal/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "parleyd",
		Short:         "Parley relay server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "f", "", "path to the TOML config file")
	return cmd
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	backend, err := logx.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer backend.Close()

	aud := audit.New(cfg.AuditPath())
	creds, err := credential.Open(cfg.StorePath(), aud)
	if err != nil {
		return err
	}

	srv := server.New(cfg, creds, backend, aud)
	if err := srv.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	srv.Shutdown()
	return nil
}
