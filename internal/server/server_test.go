package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benupfin/riskengine/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel: "info",
		Port:     8001,
		DevMode:  true,
		Workers:  2,

		AllowedOrigins: []string{"*"},

		Risk: config.RiskConfig{
			ConfidenceLevel:  0.95,
			Method:           "historical",
			DegreesOfFreedom: 5,
			MonteCarloPaths:  200,
		},
		Volatility: config.VolatilityConfig{
			DecayFactor:        0.94,
			Window:             100,
			GARCHMaxIterations: 10000,
		},
		Simulation: config.SimulationConfig{
			Trials:        100,
			Concentration: 0.05,
		},
		Seed: 42,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testConfig()
	s, err := New(Config{
		Log:     zerolog.Nop(),
		Config:  cfg,
		Port:    cfg.Port,
		DevMode: true,
	})
	require.NoError(t, err)
	return s
}

func TestNew_RejectsBadRiskDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Risk.Method = "cornish-fisher"

	_, err := New(Config{Log: zerolog.Nop(), Config: cfg, Port: 8001})
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "riskengine", response["service"])
	assert.EqualValues(t, 2, response["workers"])
	assert.Contains(t, response, "cpu_percent")
	assert.Contains(t, response, "ram_percent")
}

func TestRoutesMounted(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"dates": ["2024-01-01","2024-01-02","2024-01-03","2024-01-04"],
		"assets": ["AAA"],
		"prices": [[100, 98, 101, 97]]
	}`

	paths := []string{
		"/api/risk/assets",
		"/api/performance/summary",
		"/api/performance/drawdown",
		"/api/indicators/sma",
		"/api/volatility/ewma",
		"/api/simulation/frontier",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, req)
			// a mounted route answers with an envelope, never a bare 404/405
			assert.NotEqual(t, http.StatusNotFound, w.Code)
			assert.NotEqual(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"dates":["2024-01-01","2024-01-02","2024-01-03"],"assets":["AAA"],"prices":[[100, 99, 102]]}`
	req := httptest.NewRequest(http.MethodPost, "/api/risk/assets", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	out, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "riskengine_http_requests_total")
	assert.Contains(t, text, `route="/api/risk/assets"`)
	assert.Contains(t, text, "riskengine_http_request_duration_seconds_bucket")
}
