package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/core"
	"github.com/sitewatch/sitewatch/internal/httpapi"
	"github.com/sitewatch/sitewatch/internal/logging"
	"github.com/sitewatch/sitewatch/internal/probe"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor and its HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	monitor := core.New(logger, probe.NewHTTPChecker(cfg.ProbeTimeout), core.Options{
		ProbeTimeout: cfg.ProbeTimeout,
		IdleDelay:    cfg.IdleDelay,
		FeedInterval: cfg.FeedInterval,
		Concurrency:  cfg.Concurrency,
	})

	if cfg.TargetsFile != "" {
		seeds, err := config.LoadSeedTargets(cfg.TargetsFile)
		if err != nil {
			return err
		}
		for _, t := range seeds {
			if _, err := monitor.AddTarget(t.Name, t.URL, t.Interval.Duration); err != nil {
				logger.Warn("seed_target_skipped", zap.String("url", t.URL), zap.Error(err))
			}
		}
		logger.Info("seed_targets_loaded", zap.Int("count", len(seeds)))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitorDone := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(monitorDone)
	}()

	api := httpapi.NewServer(logger, monitor)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(cfg.RateLimitRPS, cfg.RateLimitBurst),
		// request contexts derive from ctx so long-lived SSE handlers
		// unwind during shutdown
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			stop()
			<-monitorDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	closeErr := httpServer.Shutdown(shutdownCtx)
	<-monitorDone
	logger.Info("shutdown_complete")
	return closeErr
}
