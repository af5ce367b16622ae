package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bootmatch/internal/server"

	"github.com/spf13/cobra"
)

var serveListen string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve allocation requests over HTTP",
		Long: `Starts the HTTP endpoint booting machines upload their facts to:

  POST /upload    multipart field "file" holding the fact dump
  GET  /metrics   Prometheus metrics
  GET  /healthz   liveness probe

Requests are serialised by the same lock file as the allocate command, so
both can be used against the same configuration directory.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (overrides server.listen)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(newService(cfg, st)).ListenAndServe(ctx, addr)
}
