package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexanderramin/tierboard/internal/cli"
	"github.com/alexanderramin/tierboard/internal/config"
	"github.com/alexanderramin/tierboard/internal/service"
	"github.com/alexanderramin/tierboard/internal/tracker"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	schema, err := cfg.Schema()
	if err != nil {
		return fmt.Errorf("loading field schema: %w", err)
	}

	observers := tracker.MultiObserver{tracker.NewMetricsObserver()}
	if cfg.Tracker.LogCalls {
		observers = append(observers, tracker.NewLogObserver(os.Stderr))
	}
	client := tracker.NewClient(cfg.Tracker, observers)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	useCases := service.NewSlogUseCaseObserver(logger)
	app := &cli.App{
		Dashboard: service.NewDashboardService(client, schema, service.DashboardOptions{
			Concurrency: cfg.Concurrency,
			Logger:      logger,
			Metrics:     service.NewMetrics(),
		}, useCases),
		Progress: service.NewProgressService(client, cfg.Calendar(), useCases),
		Items:    service.NewItemService(client, schema, useCases),
		Config:   cfg,
		Logger:   logger,
	}

	// Spinners only make sense on a terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

func serveMetrics(addr string, logger *slog.Logger) {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "error", err)
	}
}
