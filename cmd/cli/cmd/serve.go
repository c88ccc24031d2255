package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/module/reachability/internal/service"
	"github.com/module/reachability/internal/webui"
	"github.com/module/reachability/pkg/config"
)

var (
	// Serve command flags
	serveConfigPath string
	servePort       int
)

// serveCmd starts the long-running inference service: the scheduler's
// worker pool plus the synchronous HTTP API, sharing one database.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inference service (scheduler + HTTP API)",
	Long: `serve starts the long-running reachability engine process: it
pulls queued runs from the configured job sources (database or HTTP),
resolves their beliefs, persists the results and advisor suggestions,
and exposes a synchronous HTTP API for one-shot inference and lookups.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Start with defaults
  ` + binName + ` serve

  # Start with a config file and a specific API port
  ` + binName + ` serve --config ./config.yaml --port 9090`

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port for the HTTP API")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := service.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	api := webui.NewServer(cfg, svc.Repositories(), servePort, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- api.Start()
	}()

	log.Info("Inference service listening on :%d", servePort)

	select {
	case sig := <-sigChan:
		log.Info("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("API server error: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := api.Stop(shutdownCtx); err != nil {
		log.Warn("Failed to stop API server cleanly: %v", err)
	}

	if err := svc.Stop(); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	return nil
}
