package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"shelternav.org/internal/app"
	"shelternav.org/internal/config"
	"shelternav.org/internal/gateway"
	"shelternav.org/internal/report"
	"shelternav.org/internal/supervisor"
	"shelternav.org/internal/utils"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	var (
		port         = flag.Int("port", 0, "API server port (overrides config)")
		env          = flag.String("env", "", "Environment (development|staging|production)")
		configFile   = flag.String("config-file", "", "Path to a YAML configuration file")
		sheltersFile = flag.String("shelters-file", "", "Path to a JSON or GeoJSON shelter list")
		sheltersURL  = flag.String("shelters-url", "", "URL of a JSON or GeoJSON shelter list")
	)
	flag.Parse()

	if err := config.ValidateSourceFlags(*sheltersFile, *sheltersURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Explicitly set flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "env":
			cfg.Env = *env
		case "shelters-file":
			cfg.Shelters.File, cfg.Shelters.URL = *sheltersFile, ""
		case "shelters-url":
			cfg.Shelters.URL, cfg.Shelters.File = *sheltersURL, ""
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := report.SetupSentry(cfg.Env, version); err != nil {
		logger.Warn("Sentry disabled", "error", err)
	}
	defer report.FlushSentry()
	report.ConfigureScope(cfg.Env, version)

	if err := run(cfg, logger); err != nil {
		report.ReportError(err, sentry.LevelFatal)
		report.FlushSentry()
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := utils.NewPooledClient()

	application, err := app.New(cfg, logger, client, version)
	if err != nil {
		return err
	}

	if err := application.Shelters.Load(ctx); err != nil {
		return fmt.Errorf("failed to load shelters: %w", err)
	}
	if cfg.Routing.Provider == config.ProviderOpenRouteService && cfg.Routing.APIKey == "" {
		logger.Warn("ORS_API_KEY is not set; route requests will fail until it is configured")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	tree := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, 10*time.Second))
	tree.AddBackgroundService(supervisor.NewRoutineService("route-cache-janitor", func(ctx context.Context) {
		gateway.ClearRoutine(ctx, application.RouteCache, cfg.CacheTTL(), time.Now)
	}))
	if interval := cfg.SheltersRefreshInterval(); interval > 0 && application.Shelters.Source() != "builtin" {
		tree.AddBackgroundService(supervisor.NewRoutineService("shelter-refresh", func(ctx context.Context) {
			application.Shelters.RefreshRoutine(ctx, interval)
		}))
	}

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "provider", cfg.Routing.Provider,
		"shelters", application.Shelters.Store.Len(), "shelters_source", application.Shelters.Source())

	err = tree.Serve(ctx)
	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil {
		for _, svc := range unstopped {
			logger.Warn("Service did not stop in time", "service", svc.Name)
		}
	}
	if errors.Is(err, context.Canceled) {
		logger.Info("Shutdown complete")
		return nil
	}
	return err
}
