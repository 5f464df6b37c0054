package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/modules/performance"
)

func newRouter() chi.Router {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	h := NewHandler(performance.NewReporter(logger), api.NewCodec(logger), 0, logger)
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

const prices = `
	"dates": ["2024-01-01","2024-01-02","2024-01-03","2024-01-04"],
	"assets": ["AAA", "FLAT"],
	"prices": [[100, 120, 90, 130], [50, 50, 50, 50]]`

func post(t *testing.T, router chi.Router, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlePostSummary(t *testing.T) {
	router := newRouter()

	w := post(t, router, "/performance/summary", `{`+prices+`, "benchmark_asset": "AAA"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Data struct {
			Summaries []performance.AssetSummary `json:"summaries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	rows := response.Data.Summaries
	require.Len(t, rows, 2)

	aaa := rows[0]
	assert.Equal(t, "AAA", aaa.Asset)
	require.NotNil(t, aaa.Drawdown)
	assert.Equal(t, "dollar", aaa.Drawdown.Convention)
	assert.InDelta(t, 30.0, aaa.Drawdown.MaxDrawdown, 1e-9)
	assert.Nil(t, aaa.JensenAlpha)

	flat := rows[1]
	assert.Nil(t, flat.SharpeRatio)
	assert.NotEmpty(t, flat.Unavailable)
	require.NotNil(t, flat.CAGR)
	assert.InDelta(t, 0.0, *flat.CAGR, 1e-12)
}

func TestHandlePostDrawdown(t *testing.T) {
	router := newRouter()

	w := post(t, router, "/performance/drawdown", `{`+prices+`, "convention": "percent"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Data struct {
			Drawdowns []performance.AssetDrawdown `json:"drawdowns"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data.Drawdowns, 2)

	aaa := response.Data.Drawdowns[0]
	assert.Equal(t, "AAA", aaa.Asset)
	assert.InDelta(t, 0.25, aaa.MaxDrawdown, 1e-12)
	assert.Equal(t, 120.0, aaa.PeakPrice)
	assert.Equal(t, 90.0, aaa.TroughPrice)
	assert.Equal(t, "2024-01-02", aaa.PeakDate.Format(api.DateLayout))

	flat := response.Data.Drawdowns[1]
	assert.Equal(t, "FLAT", flat.Asset)
	assert.Equal(t, 0.0, flat.MaxDrawdown)
}

func TestHandlePostDrawdown_KeepsColumnOrder(t *testing.T) {
	router := newRouter()

	body := `{
		"dates": ["2024-01-01","2024-01-02","2024-01-03"],
		"assets": ["ZZZ", "MMM", "AAA"],
		"prices": [[10, 8, 9], [20, 20, 20], [5, 6, 3]]
	}`
	w := post(t, router, "/performance/drawdown", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Data struct {
			Drawdowns []performance.AssetDrawdown `json:"drawdowns"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assets := make([]string, 0, len(response.Data.Drawdowns))
	for _, dd := range response.Data.Drawdowns {
		assets = append(assets, dd.Asset)
	}
	assert.Equal(t, []string{"ZZZ", "MMM", "AAA"}, assets)
	assert.Equal(t, 2.0, response.Data.Drawdowns[0].MaxDrawdown)
	assert.Equal(t, 3.0, response.Data.Drawdowns[2].MaxDrawdown)
}

func TestPerformanceHandlers_Errors(t *testing.T) {
	router := newRouter()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown convention", "/performance/drawdown", `{` + prices + `, "convention": "basis-points"}`, http.StatusBadRequest, "invalid_method"},
		{"unknown benchmark", "/performance/summary", `{` + prices + `, "benchmark_asset": "ZZZ"}`, http.StatusBadRequest, "invalid_price_matrix"},
		{"ragged prices", "/performance/summary", `{"dates":["2024-01-01","2024-01-02"],"assets":["A"],"prices":[[1,2,3]]}`, http.StatusBadRequest, "invalid_price_matrix"},
		{"missing assets", "/performance/summary", `{"dates":["2024-01-01"],"prices":[[1]]}`, http.StatusBadRequest, "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, router, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var env api.ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}
