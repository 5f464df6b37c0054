// Package performance derives summary statistics (CAGR, annualized
// volatility, Sharpe and Sortino ratios, maximum drawdown, Jensen alpha)
// from price and return series.
package performance

import (
	"fmt"
	"math"
	"time"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/formulas"
)

// DaysPerYear is the calendar-year length used for annualization.
const DaysPerYear = 365.25

// DaysElapsed returns the calendar days between the first and last date.
func DaysElapsed(dates []time.Time) (float64, error) {
	if len(dates) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 dates, got %d", domain.ErrInsufficientData, len(dates))
	}
	days := dates[len(dates)-1].Sub(dates[0]).Hours() / 24
	if !(days > 0) {
		return 0, fmt.Errorf("%w: series spans no calendar time", domain.ErrInsufficientData)
	}
	return days, nil
}

// YearsElapsed returns DaysElapsed / 365.25.
func YearsElapsed(dates []time.Time) (float64, error) {
	days, err := DaysElapsed(dates)
	if err != nil {
		return 0, err
	}
	return days / DaysPerYear, nil
}

// Metrics evaluates one price series. The return series and elapsed years are
// computed once on construction.
type Metrics struct {
	prices  domain.Series
	returns []float64
	years   float64
}

// NewMetrics prepares the metrics of a price series.
func NewMetrics(prices domain.Series) (*Metrics, error) {
	if len(prices.Values) != len(prices.Dates) {
		return nil, fmt.Errorf("%w: %d prices for %d dates", domain.ErrInvalidPriceMatrix, len(prices.Values), len(prices.Dates))
	}
	for i, p := range prices.Values {
		if !formulas.IsFinite(p) {
			return nil, fmt.Errorf("%w: price %d is not finite", domain.ErrInvalidPriceMatrix, i)
		}
	}
	years, err := YearsElapsed(prices.Dates)
	if err != nil {
		return nil, err
	}

	raw := formulas.CalculateReturns(prices.Values)
	returns := make([]float64, 0, len(raw))
	for _, r := range raw {
		if formulas.IsFinite(r) {
			returns = append(returns, r)
		}
	}

	return &Metrics{prices: prices, returns: returns, years: years}, nil
}

// Years returns the annualization basis.
func (m *Metrics) Years() float64 {
	return m.years
}

// Returns returns a copy of the one-period percent returns.
func (m *Metrics) Returns() []float64 {
	return append([]float64(nil), m.returns...)
}

// EntriesPerYear is the observed return frequency.
func (m *Metrics) EntriesPerYear() float64 {
	return float64(len(m.returns)) / m.years
}

// CAGR is (P_end/P_start)^(1/years) - 1.
func (m *Metrics) CAGR() (float64, error) {
	first := m.prices.Values[0]
	last := m.prices.Values[len(m.prices.Values)-1]
	if first <= 0 || last <= 0 {
		return 0, fmt.Errorf("%w: CAGR needs positive start and end prices", domain.ErrInvalidPriceMatrix)
	}
	return math.Pow(last/first, 1/m.years) - 1, nil
}

// AnnualizedVolatility is the sample standard deviation of returns scaled by
// sqrt(entries per year).
func (m *Metrics) AnnualizedVolatility() (float64, error) {
	if len(m.returns) < 2 {
		return 0, fmt.Errorf("%w: got %d", domain.ErrEmptyReturnSeries, len(m.returns))
	}
	return formulas.StdDev(m.returns) * math.Sqrt(m.EntriesPerYear()), nil
}

// SharpeRatio is (CAGR - benchmark) / annualized volatility.
func (m *Metrics) SharpeRatio(benchmarkRate float64) (float64, error) {
	cagr, err := m.CAGR()
	if err != nil {
		return 0, err
	}
	vol, err := m.AnnualizedVolatility()
	if err != nil {
		return 0, err
	}
	if formulas.NearZero(vol) {
		return 0, fmt.Errorf("%w: annualized volatility is zero", domain.ErrDegenerateVariance)
	}
	return (cagr - benchmarkRate) / vol, nil
}

// DownsideDeviation is the annualized root-mean-square shortfall of returns
// below the benchmark. The annual benchmark is first de-annualized to the
// data frequency:
//
//	b' = (1+b)^(1/entries_per_year) - 1
//	DD = sqrt(Σ max(b' - r, 0)² / (n-1)) · sqrt(entries_per_year)
func (m *Metrics) DownsideDeviation(benchmarkRate float64) (float64, error) {
	n := len(m.returns)
	if n < 2 {
		return 0, fmt.Errorf("%w: got %d", domain.ErrEmptyReturnSeries, n)
	}
	perYear := m.EntriesPerYear()
	adjusted := math.Pow(1+benchmarkRate, 1/perYear) - 1

	sumSquares := 0.0
	for _, r := range m.returns {
		if shortfall := adjusted - r; shortfall > 0 {
			sumSquares += shortfall * shortfall
		}
	}
	return math.Sqrt(sumSquares/float64(n-1)) * math.Sqrt(perYear), nil
}

// SortinoRatio is (CAGR - benchmark) / downside deviation.
func (m *Metrics) SortinoRatio(benchmarkRate float64) (float64, error) {
	cagr, err := m.CAGR()
	if err != nil {
		return 0, err
	}
	dd, err := m.DownsideDeviation(benchmarkRate)
	if err != nil {
		return 0, err
	}
	if formulas.NearZero(dd) {
		return 0, fmt.Errorf("%w: no returns below the benchmark", domain.ErrDegenerateVariance)
	}
	return (cagr - benchmarkRate) / dd, nil
}

// MaxDrawdown runs the drawdown pass over the price series.
func (m *Metrics) MaxDrawdown(convention DrawdownConvention) (Drawdown, error) {
	return MaxDrawdown(m.prices, convention)
}
