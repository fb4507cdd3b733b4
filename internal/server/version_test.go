package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/mugiliam/unitycatalogsrv/internal/config"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersion(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest("GET", "/version", nil)
	response := s.executeTestRequest(t, req)

	require.Equal(t, http.StatusOK, response.Code)
	checkHeader(t, response.Result().Header)
	compareJson(t,
		&api.GetVersionRsp{
			ServerVersion: "UnityCatalogSrv: " + api.ServerVersion,
			ApiVersion:    api.ApiVersion_2_1,
		}, response.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	s.do(t, http.MethodGet, "/api/2.1/unity-catalog/catalogs", nil)
	rr = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "unitycatalog_http_requests_total")
	assert.True(t, strings.Contains(body, `route="/api/2.1/unity-catalog/catalogs"`), body)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/2.1/unity-catalog/nothing-here", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error_code":"NotFound"`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Server.RateLimit = 0.001
		c.Server.RateBurst = 1
	})

	rr := s.do(t, http.MethodGet, "/api/2.1/unity-catalog/catalogs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/2.1/unity-catalog/catalogs", nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error_code":"ResourceExhausted","message":"too many requests","details":[]}`, rr.Body.String())

	// operational endpoints are not limited
	rr = s.do(t, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Server.HandleCORS = true
		c.Server.CORSAllowedOrigin = "http://localhost:3000"
	})

	rr := s.do(t, http.MethodOptions, "/api/2.1/unity-catalog/catalogs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
