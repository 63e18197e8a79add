package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

func TestCollector(t *testing.T) {
	// Given: a collector on its own registry
	collector := NewCollector(prometheus.NewRegistry())

	// When: a success, a rule violation and a payout are observed
	collector.Observe("play", time.Now(), nil)
	collector.Observe("play", time.Now(), apperror.ErrNotYourTurn)
	collector.Observe("play", time.Now(), apperror.ErrNotYourTurn)
	collector.Transfer("payout", 200)

	// Then: counters are split by code
	assert.InDelta(t, 1, testutil.ToFloat64(collector.operations.WithLabelValues("play", "0")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(collector.operations.WithLabelValues("play", "104")), 0)
	assert.InDelta(t, 200, testutil.ToFloat64(collector.transfers.WithLabelValues("payout")), 0)

	// Then: the handler exposes them
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tictactoe_operations_total{code="104",operation="play"} 2`)
	assert.Contains(t, rec.Body.String(), "tictactoe_operation_duration_seconds")
}
