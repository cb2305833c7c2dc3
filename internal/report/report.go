package report

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

// Init configures error reporting. An empty DSN leaves reporting
// disabled; failures to initialize are logged and never fatal.
func Init(dsn string) {
	if dsn == "" {
		return
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: "production",
	})
	if err != nil {
		log.Printf("sentry init: %v", err)
	}
}

func Flush() { sentry.Flush(2 * time.Second) }

// CaptureError records err with the given tags. Nil errors and a
// disabled client are both no-ops.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}
