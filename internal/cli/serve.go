package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/dontsign/internal/logging"
	"github.com/ppiankov/dontsign/internal/server"
	"github.com/ppiankov/dontsign/internal/telemetry"
	"github.com/ppiankov/dontsign/internal/worker"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis API",
	Long: `Serve exposes the analyzer over HTTP:

  GET  /health             liveness probe
  POST /api/analyze        streams progress as server-sent events
  POST /api/analyze/sync   returns the merged result as JSON

Request body: {"name": "...", "text": "..."} or {"url": "https://..."}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	flush, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		TracesSampleRate: cfg.Sentry.SampleRate,
		Release:          "dontsign@" + Version,
	}, logger)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	rt, err := newRuntime(cfg, logger, runtimeOptions{})
	if err != nil {
		return err
	}

	handler := server.NewHandler(rt.orchestrator, rt.fetcher, logger)
	router := server.NewRouter(server.RouterConfig{
		Handler:      handler,
		Limiter:      worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})
	srv := server.New(cfg.Server.Addr, router, time.Duration(cfg.Server.ShutdownTimeout)*time.Second, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := rt.provider.Ping(pingCtx); err != nil {
			logger.Warn("llm provider not reachable",
				zap.String("provider", rt.provider.Name()),
				zap.Error(err))
			return nil
		}
		logger.Info("llm provider ready", zap.String("provider", rt.provider.Name()))
		return nil
	})

	logger.Info("starting dontsign api",
		zap.String("version", Version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("provider", cfg.LLM.Provider))

	return g.Wait()
}
