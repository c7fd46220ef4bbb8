package shelters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
	"shelternav.org/internal/config"
	"shelternav.org/internal/models"
	"shelternav.org/internal/report"
	"shelternav.org/internal/utils"
)

// record is one entry of a shelter list file: {"name": ..., "lat": ..., "lon": ...}.
type record struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// LoadFromFile reads a shelter list from disk.
//
// The file is either a JSON array of {name, lat, lon} records or a GeoJSON
// FeatureCollection of named Point features. Errors are reported to Sentry.
func LoadFromFile(filePath string) ([]models.Shelter, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to read shelters file: %w", err)
	}

	shelters, err := decode(data)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to decode shelters file %s: %w", filePath, err)
	}
	return shelters, nil
}

// LoadFromURL fetches a shelter list from a remote HTTP(S) endpoint, using
// optional basic authentication and retrying with backoff.
//
// It accepts the same formats as LoadFromFile.
func LoadFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) ([]models.Shelter, error) {
	data, err := download(ctx, client, url, authUser, authPass, maxRetries)
	if err != nil {
		return nil, err
	}

	shelters, err := decode(data)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("shelters_url", url),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to decode shelters from %s: %w", url, err)
	}
	return shelters, nil
}

func download(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("shelters_url", url),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := config.DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("shelters_url", url),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to fetch shelters from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("shelter source %s returned status: %d", url, resp.StatusCode)
		report.ReportErrorWithSentryOptions(statusErr, report.SentryReportOptions{
			Tags:  utils.MakeMap("shelters_url", url),
			Level: sentry.LevelError,
		})
		return nil, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("shelters_url", url),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to read shelters from %s: %w", url, err)
	}
	return data, nil
}

// decode accepts a JSON record array or a GeoJSON FeatureCollection and
// validates every shelter in it.
func decode(data []byte) ([]models.Shelter, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		fc, err := geojson.UnmarshalFeatureCollection(trimmed)
		if err != nil {
			return nil, err
		}
		return requireSome(FromFeatureCollection(fc))
	}

	var records []record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}

	shelters := make([]models.Shelter, 0, len(records))
	for i, r := range records {
		s := models.NewShelter(r.Name, r.Lat, r.Lon)
		if err := Validate(s); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		shelters = append(shelters, s)
	}
	return requireSome(shelters, nil)
}

func requireSome(shelters []models.Shelter, err error) ([]models.Shelter, error) {
	if err != nil {
		return nil, err
	}
	if len(shelters) == 0 {
		return nil, fmt.Errorf("no shelters found")
	}
	return shelters, nil
}
