package report

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// SetupSentry initializes the Sentry client from SENTRY_DSN.
// An empty DSN leaves the client disabled; events are then dropped silently.
func SetupSentry(env, version string) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("SENTRY_DSN"),
		Environment:      env,
		Release:          "shelternav@" + version,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
	}); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	sentry.CaptureMessage("Shelternav started")
	return nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
