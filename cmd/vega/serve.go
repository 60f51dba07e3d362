package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karanvs/vega/internal/api"
	"github.com/karanvs/vega/internal/api/job"
	"github.com/karanvs/vega/internal/backtest"
	"github.com/karanvs/vega/internal/logger"
	"github.com/karanvs/vega/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the VEGA server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log.Info("starting VEGA server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	provider, closeProvider, err := buildProvider(cfg, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	engine, err := backtest.New(cfg.Backtest, provider, log)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("opening results storage: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MetricsPath: cfg.Metrics.Path,
	}, api.Deps{
		Backtester: engine,
		Strategies: buildStrategies(),
		Jobs:       job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour),
		Writer:     backtest.NewWriter(store, log),
		Notifiers:  buildNotifiers(cfg, log),
		Metrics:    reg,
	}, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down VEGA server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
