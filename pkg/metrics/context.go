package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type contextKey string

// NewRelicContextKey is the context key holding the *newrelic.Application
// used by the Record* helpers.
const NewRelicContextKey contextKey = "metrics.newrelic"

// NewContext returns a copy of ctx carrying app. A nil app leaves ctx as is,
// and metrics recorded against it are dropped.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey, app)
}

func fromContext(ctx context.Context) (*newrelic.Application, bool) {
	nr, ok := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return nr, ok && nr != nil
}
