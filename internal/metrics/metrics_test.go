package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.SetIdentities(3)
	m.Message("invite")
	m.Message("invite")
	m.Failure(FailureBusy)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.identities))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("invite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues(FailureBusy)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnectionOpened()
		m.Message("end")
		m.Failure(FailureBadPayload)
		m.SetCallRecords(1)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.Message("claimIdentity")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `duocall_messages_total{kind="claimIdentity"} 1`)
}
