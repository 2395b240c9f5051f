package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("stage", "merge"),
		attribute.String("invoice_id", "INV-1"),
		attribute.String("outcome", "failure"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("stage"), attrs[0].Key)
	assert.Equal(t, attribute.Key("outcome"), attrs[1].Key)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordPipelineRun(context.Background(), "merge", time.Second)
	m.RecordEmailDispatch(context.Background(), "success", 3)
	m.RecordLoginAttempt(context.Background(), "success")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "test"}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordPipelineRun(context.Background(), "", 10*time.Millisecond)
}
