package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/velvet-rope/internal/server"
	"github.com/jonathan/velvet-rope/internal/server/ratelimit"
	"github.com/jonathan/velvet-rope/internal/speech"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing one endpoint per pipeline operation, an SSE
replay of the party, text-to-speech for pitches and Prometheus metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default :8080, or VELVET_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	// the server logs every request, so keep info level on the terminal
	cfg.Verbose = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	deps := server.Deps{
		Orchestrator: a.orchestrator,
		Metrics:      a.metrics,
		Logger:       a.logger,
		RateLimiter:  ratelimit.NewLimiter(ratelimit.LoadConfig()),
	}
	if cfg.OpenAIAPIKey != "" {
		deps.Narrator = speech.NewClient(cfg.OpenAIAPIKey)
	}
	if a.database != nil {
		deps.Runs = a.database
	}

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		ReplayInterval: time.Duration(cfg.ReplayIntervalMs) * time.Millisecond,
		Seed:           cfg.Seed,
	}, deps)
	return srv.ListenAndServe(ctx)
}
