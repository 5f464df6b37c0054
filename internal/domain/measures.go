package domain

import (
	"math"
	"time"
)

// RiskMeasure is a (VaR, ES) pair at one confidence level. Both values are
// positive loss magnitudes expressed as a fraction of portfolio value.
type RiskMeasure struct {
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	ES         float64 `json:"es"`
}

// AssetRiskMeasure ties a RiskMeasure to one asset.
type AssetRiskMeasure struct {
	Asset string `json:"asset"`
	RiskMeasure
}

// AssetRiskMeasures keeps per-asset results in the order of the asset axis
// they were computed from.
type AssetRiskMeasures []AssetRiskMeasure

// Get looks up the measure for one asset.
func (m AssetRiskMeasures) Get(asset string) (RiskMeasure, bool) {
	for _, am := range m {
		if am.Asset == asset {
			return am.RiskMeasure, true
		}
	}
	return RiskMeasure{}, false
}

// Assets lists the asset identifiers in result order.
func (m AssetRiskMeasures) Assets() []string {
	out := make([]string, len(m))
	for i, am := range m {
		out[i] = am.Asset
	}
	return out
}

// ForecastPoint is the conditional mean and volatility for one date.
type ForecastPoint struct {
	Date       time.Time `json:"date"`
	Mean       float64   `json:"mean"`
	Volatility float64   `json:"volatility"`
}

// VolatilityForecast is a time-indexed conditional mean/volatility sequence.
// Dates without a full lookback window are absent, never zero-filled.
type VolatilityForecast struct {
	Model  string          `json:"model"`
	Points []ForecastPoint `json:"points"`
}

// Len returns the number of forecast dates.
func (f VolatilityForecast) Len() int {
	return len(f.Points)
}

// RiskPoint is a time-varying VaR/ES observation.
type RiskPoint struct {
	Date time.Time `json:"date"`
	VaR  float64   `json:"var"`
	ES   float64   `json:"es"`
}

// RiskSeries is a date-ordered sequence of RiskPoints.
type RiskSeries []RiskPoint

// SimulatedPortfolio is one evaluated random allocation.
type SimulatedPortfolio struct {
	Trial      int       `json:"trial"`
	Weights    []float64 `json:"weights"`
	Volatility float64   `json:"volatility"`
	Return     float64   `json:"return"`
	Sharpe     float64   `json:"sharpe"`
}

// SimulationResult collects every non-degenerate trial in trial order.
type SimulationResult struct {
	Assets     []string             `json:"assets"`
	Portfolios []SimulatedPortfolio `json:"portfolios"`
	Excluded   int                  `json:"excluded"`
}

// MaxSharpe returns the portfolio with the highest Sharpe ratio. Ties keep
// the earliest trial.
func (r SimulationResult) MaxSharpe() (SimulatedPortfolio, bool) {
	if len(r.Portfolios) == 0 {
		return SimulatedPortfolio{}, false
	}
	best := r.Portfolios[0]
	for _, p := range r.Portfolios[1:] {
		if p.Sharpe > best.Sharpe {
			best = p
		}
	}
	return best, true
}

// MinVolatility returns the portfolio with the lowest annualized volatility.
// Ties keep the earliest trial.
func (r SimulationResult) MinVolatility() (SimulatedPortfolio, bool) {
	if len(r.Portfolios) == 0 {
		return SimulatedPortfolio{}, false
	}
	best := r.Portfolios[0]
	lowest := math.Inf(1)
	for _, p := range r.Portfolios {
		if p.Volatility < lowest {
			lowest = p.Volatility
			best = p
		}
	}
	return best, true
}
