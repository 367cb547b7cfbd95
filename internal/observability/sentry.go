package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// InitSentry is a no-op without a DSN.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		ServerName:       "storefront-api",
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
	})
}

// scrubEvent drops credentials from captured request data.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request == nil {
		return event
	}
	for _, header := range []string{"Authorization", "Cookie"} {
		delete(event.Request.Headers, header)
	}
	event.Request.Cookies = ""
	event.Request.Data = ""
	return event
}

func FlushSentry() {
	sentry.Flush(sentryFlushTimeout)
}

func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
