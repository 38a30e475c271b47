package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvaluation("rsi_bollinger", "BUY", 10*time.Millisecond)
	m.ObserveEvaluation("rsi_bollinger", "BUY", 10*time.Millisecond)
	m.Verified("WIN")
	m.Conflict()
	m.SetPending(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("rsi_bollinger", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("WIN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerifyConflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PendingSignals))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.FetchFailed("twelvedata")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sentinel_fetch_errors_total{source="twelvedata"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluation("x", "HOLD", time.Second)
		m.EvaluationFailed("x")
		m.Verified("LOSS")
		m.Conflict()
		m.Deferred()
		m.FetchFailed("x")
		m.SetPending(1)
	})
}
