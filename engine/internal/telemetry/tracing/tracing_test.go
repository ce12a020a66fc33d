package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTracerDisabledReturnsNoopSpans(t *testing.T) {
	tr := NewTracer(false)
	assert.True(t, tr.Noop())

	ctx, span := tr.StartSpan(context.Background(), "op")
	span.End()
	assert.True(t, span.IsEnded())
	traceID, spanID := ExtractIDs(ctx)
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

func TestNewTracerEnabledAssignsIDsAndLinksParent(t *testing.T) {
	tr := NewTracer(true)
	assert.False(t, tr.Noop())

	ctx, root := tr.StartSpan(context.Background(), "root")
	defer root.End()
	rootTraceID, rootSpanID := ExtractIDs(ctx)
	assert.NotEmpty(t, rootTraceID)
	assert.NotEmpty(t, rootSpanID)

	childCtx, child := tr.StartSpan(ctx, "child")
	defer child.End()
	childTraceID, childSpanID := ExtractIDs(childCtx)
	assert.Equal(t, rootTraceID, childTraceID, "a child span shares its parent's trace id")
	assert.NotEqual(t, rootSpanID, childSpanID)
	assert.Equal(t, rootSpanID, child.Context().ParentSpanID)
}

func TestSpanEndIsIdempotent(t *testing.T) {
	tr := NewTracer(true)
	_, span := tr.StartSpan(context.Background(), "op")
	span.End()
	first := span.Context().End
	span.End()
	assert.Equal(t, first, span.Context().End)
}

func TestSpanSetAttributeDoesNotPanicOnNoopSpan(t *testing.T) {
	tr := NewTracer(false)
	_, span := tr.StartSpan(context.Background(), "op")
	assert.NotPanics(t, func() { span.SetAttribute("k", "v") })
}

func TestAdaptiveTracerZeroPercentYieldsNoopSpan(t *testing.T) {
	tr := NewAdaptiveTracer(func() float64 { return 0 })
	_, span := tr.StartSpan(context.Background(), "op")
	assert.True(t, span.IsEnded(), "a noop span reports itself already ended")
}

func TestAdaptiveTracerHundredPercentAlwaysSamples(t *testing.T) {
	tr := NewAdaptiveTracer(func() float64 { return 100 })
	ctx, span := tr.StartSpan(context.Background(), "op")
	defer span.End()
	traceID, _ := ExtractIDs(ctx)
	assert.NotEmpty(t, traceID)
}

func TestExtractIDsOnBareContextIsEmpty(t *testing.T) {
	traceID, spanID := ExtractIDs(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}
