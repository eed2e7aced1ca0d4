package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoNewRelic(t *testing.T) {
	ctx := NewContext(context.Background(), nil)
	assert.Nil(t, ctx.Value(NewRelicContextKey))

	assert.NotPanics(t, func() {
		RecordCount(ctx, "count", 1)
		RecordDuration(ctx, "duration", time.Second)
		RecordEvent(ctx, "event", map[string]interface{}{"key": "value"})
	})

	tracer := TraceMethodCall(ctx, "metrics", "TestNoNewRelic")
	assert.Nil(t, tracer)
	assert.NotPanics(t, func() {
		tracer.AddAttribute("key", "value")
		tracer.AddAttributes(map[string]interface{}{"key": "value"})
		tracer.OnError(errors.New("failure"))
		tracer.End()
	})
}
