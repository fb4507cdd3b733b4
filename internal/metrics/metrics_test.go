package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.TxRetry()
	m.TxRetry()
	m.TxDone(nil)
	m.TxDone(errors.New("conflict"))
	m.ObserveRequest("/catalogs", http.MethodGet, 200, 5*time.Millisecond)
	m.SharingRead("metadata")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.txRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txTotal.WithLabelValues("commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txTotal.WithLabelValues("rollback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/catalogs", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sharingReads.WithLabelValues("metadata")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.TxRetry()
	m.TxDone(nil)
	m.RateLimited()
	m.ObserveRequest("/", "GET", 200, 0)
	m.SharingRead("query")
}

func TestHandler(t *testing.T) {
	m := New()
	m.RateLimited()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "unitycatalog_http_rate_limited_total 1")
}
