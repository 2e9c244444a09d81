package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/server"
	"github.com/cruciblehq/crucible/internal/storage/sqlite"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Crucible web server",
	Long: `Start the Crucible HTTP server with REST API and WebSocket support.

The web console is available at the root URL. API endpoints are under /api.

Examples:
  crucible serve
  crucible serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Open storage
	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	registry := caps.Default()
	log.Printf("Capabilities: %d registered, %d allowed", len(registry.Names()), len(cfg.Sandbox.Allow))

	// Determine port
	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	// Create and start server
	srv := server.New(cfg, store, registry)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start(port)
}
