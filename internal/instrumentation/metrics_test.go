package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func newTestMetrics(t *testing.T, detailedLabels bool) *Metrics {
	t.Helper()
	provider := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"), detailedLabels)
	require.NoError(t, err)
	return m
}

func TestNewMetrics(t *testing.T) {
	m := newTestMetrics(t, false)

	assert.NotNil(t, m.httpRequestsTotal)
	assert.NotNil(t, m.httpRequestDuration)
	assert.NotNil(t, m.gmailOperationsTotal)
	assert.NotNil(t, m.gmailOperationDuration)
	assert.NotNil(t, m.toolInvocationsTotal)
	assert.NotNil(t, m.toolDuration)
}

func TestMetricsRecordingDoesNotPanic(t *testing.T) {
	m := newTestMetrics(t, true)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, 5*time.Millisecond)
	m.RecordGmailOperation(ctx, OperationSend, StatusSuccess, 100*time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	m.RecordToolInvocation(ctx, "gmail_get_message", StatusSuccess, 50*time.Millisecond)
	m.RecordToolInvocationWithAccount(ctx, "gmail_get_message", StatusError, "work", 50*time.Millisecond)
}

func TestZeroValueMetricsIsNoOp(t *testing.T) {
	var m Metrics
	ctx := context.Background()

	// Must not panic when instruments are nil.
	m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordGmailOperation(ctx, OperationGet, StatusSuccess, time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	m.RecordToolInvocation(ctx, "t", StatusSuccess, time.Millisecond)
	m.RecordToolInvocationWithAccount(ctx, "t", StatusSuccess, "a", time.Millisecond)
}

func TestProviderDisabled(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = false

	p, err := NewProvider(context.Background(), config)
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Metrics())
	assert.Nil(t, p.PrometheusHandler())
	assert.NoError(t, p.Shutdown(context.Background()))
}
