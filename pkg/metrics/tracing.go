package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer times a single segment of the transaction in a request's
// context. A nil *MethodTracer is valid and does nothing, which is what
// TraceMethodCall returns outside of a transaction.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a segment named "<component> <method>".
func TraceMethodCall(ctx context.Context, component, method string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(component + " " + method),
	}
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t != nil {
		t.seg.AddAttribute(key, value)
	}
}

func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	for key, value := range attributes {
		t.AddAttribute(key, value)
	}
}

// OnError notices err on the enclosing transaction. Nil errors are ignored.
func (t *MethodTracer) OnError(err error) {
	if t != nil && err != nil {
		t.txn.NoticeError(err)
	}
}

func (t *MethodTracer) End() {
	if t != nil {
		t.seg.End()
	}
}
