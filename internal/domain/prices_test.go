package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestPriceMatrix_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pm      PriceMatrix
		wantErr bool
	}{
		{
			name: "valid two assets",
			pm: PriceMatrix{
				Dates:  []time.Time{day(0), day(1), day(2)},
				Assets: []string{"AAPL", "MSFT"},
				Prices: [][]float64{{1, 2, 3}, {4, 5, 6}},
			},
		},
		{
			name:    "no assets",
			pm:      PriceMatrix{Dates: []time.Time{day(0)}},
			wantErr: true,
		},
		{
			name: "duplicate dates",
			pm: PriceMatrix{
				Dates:  []time.Time{day(0), day(0)},
				Assets: []string{"A"},
				Prices: [][]float64{{1, 2}},
			},
			wantErr: true,
		},
		{
			name: "decreasing dates",
			pm: PriceMatrix{
				Dates:  []time.Time{day(1), day(0)},
				Assets: []string{"A"},
				Prices: [][]float64{{1, 2}},
			},
			wantErr: true,
		},
		{
			name: "ragged column",
			pm: PriceMatrix{
				Dates:  []time.Time{day(0), day(1)},
				Assets: []string{"A", "B"},
				Prices: [][]float64{{1, 2}, {3}},
			},
			wantErr: true,
		},
		{
			name: "duplicate asset",
			pm: PriceMatrix{
				Dates:  []time.Time{day(0), day(1)},
				Assets: []string{"A", "A"},
				Prices: [][]float64{{1, 2}, {3, 4}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pm.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPriceMatrix)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReturnMatrix_PortfolioReturns(t *testing.T) {
	rm := ReturnMatrix{
		Dates:  []time.Time{day(1), day(2), day(3)},
		Assets: []string{"A", "B", "C"},
		Returns: [][]float64{
			{0.01, -0.02, 0.03},
			{0.00, 0.01, -0.01},
			{-0.05, 0.02, 0.04},
		},
	}
	weights := Weights{0.5, 0.3, 0.2}

	series, err := rm.PortfolioReturns(weights)
	require.NoError(t, err)
	require.Len(t, series.Values, 3)

	for tIdx := 0; tIdx < rm.Len(); tIdx++ {
		want := 0.0
		for a := range rm.Assets {
			want += weights[a] * rm.Returns[a][tIdx]
		}
		assert.InDelta(t, want, series.Values[tIdx], 1e-12, "date %d", tIdx)
		assert.Equal(t, rm.Dates[tIdx], series.Dates[tIdx])
	}
}

func TestReturnMatrix_PortfolioReturns_WeightMismatch(t *testing.T) {
	rm := ReturnMatrix{
		Dates:   []time.Time{day(1), day(2)},
		Assets:  []string{"A", "B"},
		Returns: [][]float64{{0.01, 0.02}, {0.03, 0.04}},
	}

	_, err := rm.PortfolioReturns(Weights{1})
	assert.True(t, errors.Is(err, ErrWeightDimensionMismatch))

	_, err = rm.PortfolioReturns(Weights{})
	assert.True(t, errors.Is(err, ErrWeightDimensionMismatch))
}

func TestReturnMatrix_ColumnIsCopy(t *testing.T) {
	rm := ReturnMatrix{
		Dates:   []time.Time{day(1), day(2)},
		Assets:  []string{"A"},
		Returns: [][]float64{{0.01, 0.02}},
	}

	col, err := rm.Column("A")
	require.NoError(t, err)
	col[0] = 99

	assert.Equal(t, 0.01, rm.Returns[0][0])

	_, err = rm.Column("missing")
	assert.Error(t, err)
}

func TestValidateConfidence(t *testing.T) {
	for _, c := range []float64{0.5, 0.95, 0.99} {
		assert.NoError(t, ValidateConfidence(c))
	}
	for _, c := range []float64{0, 1, -0.1, 1.5} {
		assert.ErrorIs(t, ValidateConfidence(c), ErrInvalidConfidenceLevel)
	}
}

func TestSimulationResult_Selection(t *testing.T) {
	result := SimulationResult{
		Portfolios: []SimulatedPortfolio{
			{Trial: 0, Volatility: 0.20, Sharpe: 1.0},
			{Trial: 1, Volatility: 0.10, Sharpe: 1.5},
			{Trial: 2, Volatility: 0.10, Sharpe: 1.5},
		},
	}

	best, ok := result.MaxSharpe()
	require.True(t, ok)
	assert.Equal(t, 1, best.Trial)

	calm, ok := result.MinVolatility()
	require.True(t, ok)
	assert.Equal(t, 1, calm.Trial)

	_, ok = SimulationResult{}.MaxSharpe()
	assert.False(t, ok)
}

func TestAssetRiskMeasures_Get(t *testing.T) {
	m := AssetRiskMeasures{
		{Asset: "B", RiskMeasure: RiskMeasure{VaR: 0.02}},
		{Asset: "A", RiskMeasure: RiskMeasure{VaR: 0.01}},
	}

	got, ok := m.Get("A")
	require.True(t, ok)
	assert.Equal(t, 0.01, got.VaR)
	assert.Equal(t, []string{"B", "A"}, m.Assets())

	_, ok = m.Get("C")
	assert.False(t, ok)
}
