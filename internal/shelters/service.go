package shelters

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"shelternav.org/internal/config"
	"shelternav.org/internal/models"
	"shelternav.org/internal/report"
)

// Service loads the shelter set from the configured source into a Store.
type Service struct {
	Store  *Store
	Config config.SheltersConfig
	Client *http.Client
	Logger *slog.Logger
}

func NewService(store *Store, cfg config.SheltersConfig, client *http.Client, logger *slog.Logger) *Service {
	return &Service{
		Store:  store,
		Config: cfg,
		Client: client,
		Logger: logger,
	}
}

// Source names the source Load reads from: "file", "url", "gtfs" or "builtin".
func (s *Service) Source() string {
	switch {
	case s.Config.File != "":
		return "file"
	case s.Config.URL != "":
		return "url"
	case s.Config.GTFSURL != "":
		return "gtfs"
	default:
		return "builtin"
	}
}

func (s *Service) fetch(ctx context.Context) ([]models.Shelter, error) {
	switch s.Source() {
	case "file":
		return LoadFromFile(s.Config.File)
	case "url":
		return LoadFromURL(ctx, s.Client, s.Config.URL, s.Config.AuthUser, s.Config.AuthPass, s.Config.MaxRetries)
	case "gtfs":
		return LoadFromGTFS(ctx, s.Client, s.Config.GTFSURL, s.Config.MaxRetries)
	default:
		return Defaults(), nil
	}
}

// Load reads the configured source and replaces the store's contents.
// On error the store is left as it was.
func (s *Service) Load(ctx context.Context) error {
	shelters, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.Store.Set(shelters)
	s.Logger.Info("Loaded shelters", "source", s.Source(), "count", len(shelters))
	return nil
}

// RefreshRoutine reloads the shelter set every interval until ctx is done.
//
// Errors during fetch or parse are logged and reported to Sentry, but the
// loop continues and the previous set stays in place. Sessions that already
// hold a snapshot are not affected by a refresh.
func (s *Service) RefreshRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("Stopping shelter refresh routine")
			return
		case <-ticker.C:
			if err := s.Load(ctx); err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Tags:  map[string]string{"shelters_source": s.Source()},
					Level: sentry.LevelError,
				})
				s.Logger.Error("Failed to refresh shelters", "error", err)
			}
		}
	}
}
