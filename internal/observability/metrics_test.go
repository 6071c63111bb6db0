package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveSettlement(t *testing.T) {
	m := NewMetrics()

	m.ObserveSettlement("webhook", "paid")
	m.ObserveSettlement("webhook", "paid")
	m.ObserveSettlement("poll", "already_paid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlements.WithLabelValues("webhook", "paid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("poll", "already_paid")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveSettlement("webhook", "paid")
		m.ObserveWebhook("checkout.session.completed", "processed")
		m.ObserveProviderCall("retrieve_session", errors.New("boom"), time.Second)
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
}

func TestMetrics_ObserveWebhookDefaultsType(t *testing.T) {
	m := NewMetrics()

	m.ObserveWebhook("", "signature_invalid")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("unknown", "signature_invalid")))
}
