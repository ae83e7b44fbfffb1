// Secret Forest Daemon - the world state engine and API server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/secretforest/secretforest/internal/api"
	"github.com/secretforest/secretforest/internal/config"
	"github.com/secretforest/secretforest/internal/logging"
	"github.com/secretforest/secretforest/internal/storage"
	"github.com/secretforest/secretforest/internal/world"
)

var (
	configPath string
	dataDir    string
	port       int
	noSeed     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "secretforest",
		Short: "Secret Forest - the living world behind the forest",
		RunE:  runDaemon,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	rootCmd.Flags().BoolVar(&noSeed, "no-seed", false, "Skip seeding the initial forest")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	log := logging.WithField("component", "daemon")

	log.Info("Starting Secret Forest daemon")

	// Open database
	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Seed the initial forest on first run
	if !noSeed {
		if err := db.Seed(); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	// Wire engine and server. The server is the engine's publisher, so
	// every committed mutation reaches connected websocket clients.
	engine := world.NewEngine(db, nil)
	server := api.New(api.Config{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		Engine: engine,
	})
	engine.SetPublisher(server)

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Info("Shutting down")
		server.Stop(context.Background())
	}()

	log.Info("Open http://%s:%d in your browser", cfg.Server.Host, cfg.Server.Port)
	return server.Start()
}
