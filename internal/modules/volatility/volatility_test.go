package volatility

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/risk"
)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func series(values []float64) domain.Series {
	return domain.Series{Dates: dates(len(values)), Values: values}
}

// simulateGARCH draws a GARCH(1,1) path with standardized Student-t shocks.
func simulateGARCH(n int, omega, alpha, beta, nu float64, seed uint64) []float64 {
	shock := distuv.StudentsT{Mu: 0, Sigma: math.Sqrt((nu - 2) / nu), Nu: nu, Src: rand.NewPCG(seed, 1)}
	out := make([]float64, n)
	h := omega / (1 - alpha - beta)
	for t := range out {
		out[t] = math.Sqrt(h) * shock.Rand()
		h = omega + alpha*out[t]*out[t] + beta*h
	}
	return out
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("GARCH")
	require.NoError(t, err)
	assert.Equal(t, GARCH, m)

	m, err = ParseModel("ewma")
	require.NoError(t, err)
	assert.Equal(t, EWMA, m)

	_, err = ParseModel("egarch")
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)
}

func TestEWMAForecast(t *testing.T) {
	values := []float64{0.01, -0.02, 0.03, -0.01, 0.02}

	t.Run("only full windows are forecast", func(t *testing.T) {
		f, err := EWMAForecast(series(values), Config{Window: 3, DecayFactor: 0.94})
		require.NoError(t, err)

		require.Equal(t, 3, f.Len())
		assert.Equal(t, "ewma", f.Model)
		assert.Equal(t, dates(5)[2], f.Points[0].Date)
		assert.Equal(t, dates(5)[4], f.Points[2].Date)
	})

	t.Run("weights decay from the most recent observation", func(t *testing.T) {
		lambda := 0.5
		f, err := EWMAForecast(series(values), Config{Window: 3, DecayFactor: lambda})
		require.NoError(t, err)

		// t = 2 window is r0, r1, r2 with weights 1/1.75, 0.5/1.75, 0.25/1.75 on r2, r1, r0
		want := math.Sqrt((0.03*0.03 + 0.5*0.02*0.02 + 0.25*0.01*0.01) / 1.75)
		assert.InDelta(t, want, f.Points[0].Volatility, 1e-12)
		assert.InDelta(t, (0.01-0.02+0.03)/3, f.Points[0].Mean, 1e-12)
	})

	t.Run("zero decay uses only the latest squared return", func(t *testing.T) {
		f, err := EWMAForecast(series(values), Config{Window: 3, DecayFactor: 0})
		require.NoError(t, err)

		for i, p := range f.Points {
			assert.InDelta(t, math.Abs(values[i+2]), p.Volatility, 1e-15)
		}
	})

	t.Run("window equal to the series length gives one forecast", func(t *testing.T) {
		f, err := EWMAForecast(series(values), Config{Window: 5, DecayFactor: 0.94})
		require.NoError(t, err)
		assert.Equal(t, 1, f.Len())
	})
}

func TestEWMAForecast_Errors(t *testing.T) {
	values := []float64{0.01, -0.02, 0.03}

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"window longer than series", Config{Window: 4, DecayFactor: 0.94}, domain.ErrInsufficientData},
		{"zero window", Config{Window: 0, DecayFactor: 0.94}, domain.ErrInvalidParameter},
		{"decay of one", Config{Window: 2, DecayFactor: 1}, domain.ErrInvalidParameter},
		{"negative decay", Config{Window: 2, DecayFactor: -0.1}, domain.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EWMAForecast(series(values), tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGARCHForecast(t *testing.T) {
	values := simulateGARCH(1500, 1e-5, 0.08, 0.9, 6, 21)
	cfg := Config{Window: 100, MaxIterations: 10000}

	f, params, err := GARCHForecast(series(values), cfg)
	require.NoError(t, err)

	assert.Equal(t, "garch", f.Model)
	require.Equal(t, len(values)-cfg.Window+1, f.Len())
	assert.Equal(t, dates(len(values))[cfg.Window-1], f.Points[0].Date)

	assert.Greater(t, params.Omega, 0.0)
	assert.Greater(t, params.Alpha, 0.0)
	assert.Greater(t, params.Beta, 0.0)
	assert.Less(t, params.Persistence(), 1.0)
	assert.Greater(t, params.Persistence(), 0.5)
	assert.Greater(t, params.Nu, 2.0)

	for _, p := range f.Points {
		assert.Greater(t, p.Volatility, 0.0)
		assert.False(t, math.IsNaN(p.Volatility))
		assert.Equal(t, params.Mu, p.Mean)
	}
}

func TestGARCHForecast_Errors(t *testing.T) {
	values := simulateGARCH(300, 1e-5, 0.08, 0.9, 6, 4)

	_, _, err := GARCHForecast(series(values), Config{Window: 100, MaxIterations: 1})
	assert.ErrorIs(t, err, domain.ErrModelDidNotConverge)

	_, _, err = GARCHForecast(series(values[:50]), Config{Window: 100, MaxIterations: 1000})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	flat := make([]float64, 120)
	_, _, err = GARCHForecast(series(flat), Config{Window: 100, MaxIterations: 1000})
	assert.ErrorIs(t, err, domain.ErrDegenerateVariance)
}

func TestRiskSeries(t *testing.T) {
	forecast := domain.VolatilityForecast{
		Model: "ewma",
		Points: []domain.ForecastPoint{
			{Date: dates(1)[0], Mean: 0.001, Volatility: 0.02},
		},
	}

	rs, err := RiskSeries(forecast, 0.99)
	require.NoError(t, err)
	require.Len(t, rs, 1)

	wantVaR, wantES := risk.NormalVaRES(0.001, 0.02, 0.99)
	assert.Equal(t, wantVaR, rs[0].VaR)
	assert.Equal(t, wantES, rs[0].ES)
	assert.Greater(t, rs[0].ES, rs[0].VaR)

	_, err = RiskSeries(forecast, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfidenceLevel)
}

func TestService_Run(t *testing.T) {
	values := []float64{0.01, -0.02, 0.03, -0.01, 0.02, 0.015}
	rm := domain.ReturnMatrix{
		Dates:   dates(len(values)),
		Assets:  []string{"A", "B"},
		Returns: [][]float64{values, values},
	}
	svc := NewService(zerolog.Nop())

	res, err := svc.Run(context.Background(), rm, domain.Weights{0.5, 0.5}, EWMA, Config{Window: 3, DecayFactor: 0.94}, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Forecast.Len())
	assert.Len(t, res.RiskSeries, 4)
	assert.Nil(t, res.GARCH)

	_, err = svc.Run(context.Background(), rm, domain.Weights{1}, EWMA, DefaultConfig(), 0.95)
	assert.ErrorIs(t, err, domain.ErrWeightDimensionMismatch)

	_, err = svc.Run(context.Background(), rm, domain.Weights{0.5, 0.5}, Model(9), DefaultConfig(), 0.95)
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)
}
