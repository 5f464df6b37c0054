package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/modules/returns"
	"github.com/benupfin/riskengine/internal/modules/simulation"
)

func newRouter() chi.Router {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	h := NewHandler(
		returns.NewBuilder(logger),
		simulation.NewSimulator(logger, 2),
		api.NewCodec(logger),
		simulation.DefaultConfig(),
		logger,
	)
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

const prices = `
	"dates": ["2024-01-01","2024-01-02","2024-01-03","2024-01-04","2024-01-05","2024-01-06"],
	"assets": ["AAA", "BBB", "CCC"],
	"prices": [[100, 101, 99, 102, 103, 101], [20, 20.4, 20.1, 19.8, 20.5, 20.9], [7, 6.9, 7.2, 7.1, 7.3, 7.0]]`

func TestHandlePostFrontier(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodPost, "/simulation/frontier",
		strings.NewReader(`{`+prices+`, "trials": 200, "include_portfolios": true}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Data frontierResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	data := response.Data
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, data.Assets)
	assert.Equal(t, 200, data.Trials)
	assert.Equal(t, 200, len(data.Portfolios)+data.Excluded)
	for _, p := range data.Portfolios {
		assert.LessOrEqual(t, p.Sharpe, data.MaxSharpe.Sharpe)
		assert.GreaterOrEqual(t, p.Volatility, data.MinVolatility.Volatility)
	}
}

func TestHandlePostFrontier_MsgpackRoundTrip(t *testing.T) {
	router := newRouter()

	trials := 50
	var payload bytes.Buffer
	enc := msgpack.NewEncoder(&payload)
	enc.SetCustomStructTag("json")
	require.NoError(t, enc.Encode(frontierRequest{
		PriceRequest: api.PriceRequest{
			Dates:  []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"},
			Assets: []string{"AAA", "BBB"},
			Prices: [][]float64{{100, 101, 99, 102}, {20, 20.4, 20.1, 19.8}},
		},
		Trials: &trials,
	}))

	req := httptest.NewRequest(http.MethodPost, "/simulation/frontier", &payload)
	req.Header.Set("Content-Type", api.ContentTypeMsgpack)
	req.Header.Set("Accept", api.ContentTypeMsgpack)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var env map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &env))
	data := env["data"].(map[string]interface{})
	assert.NotContains(t, data, "portfolios")
	assert.Contains(t, data, "max_sharpe")
}

func TestHandlePostFrontier_Errors(t *testing.T) {
	router := newRouter()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"negative trials", `{` + prices + `, "trials": -5}`, http.StatusBadRequest, "validation_failed"},
		{"zero concentration", `{` + prices + `, "concentration": 0}`, http.StatusBadRequest, "invalid_parameter"},
		{"flat prices", `{"dates":["2024-01-01","2024-01-02","2024-01-03"],"assets":["A"],"prices":[[5,5,5]], "trials": 10}`, http.StatusUnprocessableEntity, "degenerate_portfolio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/simulation/frontier", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var env api.ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}
