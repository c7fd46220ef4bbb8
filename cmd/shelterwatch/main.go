// Command shelterwatch follows a stream of "lat,lon" positions and keeps a
// walking route to the nearest shelter, using a shelternav gateway.
//
//	shelterwatch -gateway http://localhost:4000 -input positions.txt -pace 2s
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelternav.org/internal/client"
	"shelternav.org/internal/utils"
	"shelternav.org/internal/watch"
)

func main() {
	var (
		gatewayURL = flag.String("gateway", "http://localhost:4000", "Base URL of the shelternav gateway")
		input      = flag.String("input", "-", "File of \"lat,lon\" lines, or - for stdin")
		pace       = flag.Duration("pace", 0, "Delay between positions read from the input")
		throttle   = flag.Duration("throttle", 4*time.Second, "Minimum interval between route requests")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(*gatewayURL, *input, *pace, *throttle, logger); err != nil {
		logger.Error("Watch failed", "error", err)
		os.Exit(1)
	}
}

func run(gatewayURL, input string, pace, throttle time.Duration, logger *slog.Logger) error {
	if throttle < 0 {
		return fmt.Errorf("throttle must not be negative, got %s", throttle)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	gateway := client.New(gatewayURL, utils.NewPooledClient())

	shelters, err := gateway.ListShelters(ctx)
	if err != nil {
		return fmt.Errorf("failed to load shelters from %s: %w", gatewayURL, err)
	}
	logger.Info("Loaded shelters", "gateway", gatewayURL, "count", len(shelters))

	session := watch.NewSession(shelters, gateway, watch.NewThrottle(throttle), logger,
		watch.WithOnUpdate(func(s watch.Snapshot) {
			logSnapshot(logger, s)
		}),
	)

	err = session.Run(ctx, watch.NewLineSource(r, pace, logger))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func logSnapshot(logger *slog.Logger, s watch.Snapshot) {
	attrs := []any{"outcome", s.Outcome, "status", s.Status}
	if s.Position != nil {
		attrs = append(attrs, "lat", s.Position.Lat, "lon", s.Position.Lon)
	}
	if s.Nearest != nil {
		attrs = append(attrs, "shelter", s.Nearest.Shelter.Name, "distance_m", fmt.Sprintf("%.0f", s.Nearest.DistanceMeters))
	}
	if s.Route != nil {
		attrs = append(attrs, "route_points", len(s.Route.Points), "from_cache", s.Route.FromCache)
	}
	logger.Info("Watch update", attrs...)
}
