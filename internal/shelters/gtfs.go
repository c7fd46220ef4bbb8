package shelters

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	remoteGtfs "github.com/jamespfennell/gtfs"
	"shelternav.org/internal/models"
	"shelternav.org/internal/report"
	"shelternav.org/internal/utils"
)

// LoadFromGTFS downloads a GTFS static bundle and turns its stations into
// shelters, one per station.
func LoadFromGTFS(ctx context.Context, client *http.Client, url string, maxRetries int) ([]models.Shelter, error) {
	data, err := download(ctx, client, url, "", "", maxRetries)
	if err != nil {
		return nil, err
	}

	staticBundle, err := remoteGtfs.ParseStatic(data, remoteGtfs.ParseStaticOptions{})
	if err != nil {
		err = fmt.Errorf("failed to parse GTFS static data from %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("gtfs_url", url),
			Level: sentry.LevelError,
		})
		return nil, err
	}

	return requireSome(FromStops(staticBundle.Stops), nil)
}

// FromStops selects shelter candidates from GTFS stops.
//
// Stations (location_type 1) are used when the feed has any. Feeds that
// do not model stations fall back to their top-level stops, those without
// a parent station. Stops without coordinates are skipped.
// See https://gtfs.org/schedule/reference/#stopstxt for the hierarchy.
func FromStops(stops []remoteGtfs.Stop) []models.Shelter {
	var stations, topLevel []models.Shelter

	for _, stop := range stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		name := stop.Name
		if name == "" {
			name = stop.Id
		}
		shelter := models.NewShelter(name, *stop.Latitude, *stop.Longitude)
		if Validate(shelter) != nil {
			continue
		}

		switch {
		case stop.Type == 1:
			stations = append(stations, shelter)
		case stop.Type == 0 && stop.Parent == nil:
			topLevel = append(topLevel, shelter)
		}
	}

	if len(stations) > 0 {
		return stations
	}
	return topLevel
}
