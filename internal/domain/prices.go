// Package domain holds the value types shared by the estimation modules.
// Every value is built once and never mutated by the code that consumes it.
package domain

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PriceMatrix is a date-ordered table with one price column per asset.
// Prices[a][t] is the price of Assets[a] on Dates[t].
type PriceMatrix struct {
	Dates  []time.Time
	Assets []string
	Prices [][]float64
}

// Validate checks the structural invariants: strictly increasing dates,
// at least one uniquely named asset and one full-length column per asset.
func (pm PriceMatrix) Validate() error {
	if len(pm.Assets) == 0 {
		return fmt.Errorf("%w: no asset columns", ErrInvalidPriceMatrix)
	}
	if len(pm.Prices) != len(pm.Assets) {
		return fmt.Errorf("%w: %d price columns for %d assets", ErrInvalidPriceMatrix, len(pm.Prices), len(pm.Assets))
	}

	seen := make(map[string]struct{}, len(pm.Assets))
	for a, asset := range pm.Assets {
		if asset == "" {
			return fmt.Errorf("%w: empty asset name at column %d", ErrInvalidPriceMatrix, a)
		}
		if _, dup := seen[asset]; dup {
			return fmt.Errorf("%w: duplicate asset %s", ErrInvalidPriceMatrix, asset)
		}
		seen[asset] = struct{}{}

		if len(pm.Prices[a]) != len(pm.Dates) {
			return fmt.Errorf("%w: asset %s has %d prices for %d dates", ErrInvalidPriceMatrix, asset, len(pm.Prices[a]), len(pm.Dates))
		}
	}

	for t := 1; t < len(pm.Dates); t++ {
		if !pm.Dates[t].After(pm.Dates[t-1]) {
			return fmt.Errorf("%w: dates not strictly increasing at %s", ErrInvalidPriceMatrix, pm.Dates[t].Format("2006-01-02"))
		}
	}

	return nil
}

// Len returns the number of dates.
func (pm PriceMatrix) Len() int {
	return len(pm.Dates)
}

// Series extracts a single asset as a dated series. The values are copied.
func (pm PriceMatrix) Series(asset string) (Series, error) {
	for a, name := range pm.Assets {
		if name == asset {
			values := make([]float64, len(pm.Prices[a]))
			copy(values, pm.Prices[a])
			dates := make([]time.Time, len(pm.Dates))
			copy(dates, pm.Dates)
			return Series{Dates: dates, Values: values}, nil
		}
	}
	return Series{}, fmt.Errorf("%w: unknown asset %s", ErrInvalidPriceMatrix, asset)
}

// Series is a single dated sequence of prices or returns.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.Values)
}

// ReturnMatrix holds one-period returns. Dates[t] is the closing date of the
// period ending at row t, so it starts at the second price date.
type ReturnMatrix struct {
	Dates   []time.Time
	Assets  []string
	Returns [][]float64 // Returns[a][t]
}

// Len returns the number of return observations.
func (rm ReturnMatrix) Len() int {
	return len(rm.Dates)
}

// NumAssets returns the width of the asset axis.
func (rm ReturnMatrix) NumAssets() int {
	return len(rm.Assets)
}

// Column returns the returns of one asset.
func (rm ReturnMatrix) Column(asset string) ([]float64, error) {
	for a, name := range rm.Assets {
		if name == asset {
			out := make([]float64, len(rm.Returns[a]))
			copy(out, rm.Returns[a])
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown asset %s", ErrInvalidPriceMatrix, asset)
}

// Dense lays the returns out as a T×N matrix (rows are dates, columns assets).
func (rm ReturnMatrix) Dense() *mat.Dense {
	rows, cols := rm.Len(), rm.NumAssets()
	data := make([]float64, 0, rows*cols)
	for t := 0; t < rows; t++ {
		for a := 0; a < cols; a++ {
			data = append(data, rm.Returns[a][t])
		}
	}
	return mat.NewDense(rows, cols, data)
}

// PortfolioReturns computes ReturnMatrix × weights, one value per date.
func (rm ReturnMatrix) PortfolioReturns(weights Weights) (Series, error) {
	if err := weights.Validate(rm.NumAssets()); err != nil {
		return Series{}, err
	}
	if rm.Len() == 0 {
		return Series{}, ErrEmptyReturnSeries
	}

	var out mat.VecDense
	out.MulVec(rm.Dense(), mat.NewVecDense(len(weights), []float64(weights)))

	values := make([]float64, rm.Len())
	for t := range values {
		values[t] = out.AtVec(t)
	}
	dates := make([]time.Time, rm.Len())
	copy(dates, rm.Dates)

	return Series{Dates: dates, Values: values}, nil
}

// Weights is an allocation vector ordered like the asset axis of a ReturnMatrix.
// Weights may be leveraged or short; only the shape is constrained.
type Weights []float64

// Validate rejects empty vectors, vectors of the wrong length and non-finite entries.
func (w Weights) Validate(assets int) error {
	if len(w) == 0 {
		return fmt.Errorf("%w: empty weight vector", ErrWeightDimensionMismatch)
	}
	if len(w) != assets {
		return fmt.Errorf("%w: %d weights for %d assets", ErrWeightDimensionMismatch, len(w), assets)
	}
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %d is not finite", ErrInvalidParameter, i)
		}
	}
	return nil
}

// Sum returns the total allocation.
func (w Weights) Sum() float64 {
	return floats.Sum(w)
}
