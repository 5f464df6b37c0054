package volatility

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/formulas"
)

// EWMAForecast estimates volatility at every date t >= Window-1 as
//
//	σ_t = sqrt(Σ_{i=0}^{W-1} w_i · r_{t-i}²),  w_i = λ^i / Σ_j λ^j
//
// centred on the mean of the same window. Indices run forward from the
// window start; nothing wraps past the beginning of the series.
func EWMAForecast(series domain.Series, cfg Config) (domain.VolatilityForecast, error) {
	lambda := cfg.DecayFactor
	if !(lambda >= 0 && lambda < 1) {
		return domain.VolatilityForecast{}, fmt.Errorf("%w: decay factor must be in [0, 1), got %v", domain.ErrInvalidParameter, lambda)
	}
	n := series.Len()
	if err := cfg.validateWindow(n); err != nil {
		return domain.VolatilityForecast{}, err
	}

	// weights[i] applies to lag i, i.e. r[t-i]
	weights := make([]float64, cfg.Window)
	for i := range weights {
		weights[i] = math.Pow(lambda, float64(i))
	}
	floats.Scale(1/floats.Sum(weights), weights)

	points := make([]domain.ForecastPoint, 0, n-cfg.Window+1)
	for t := cfg.Window - 1; t < n; t++ {
		start := t - cfg.Window + 1
		window := series.Values[start : t+1]

		variance := 0.0
		for i, w := range weights {
			r := window[len(window)-1-i]
			variance += w * r * r
		}

		points = append(points, domain.ForecastPoint{
			Date:       series.Dates[t],
			Mean:       formulas.Mean(window),
			Volatility: math.Sqrt(variance),
		})
	}

	return domain.VolatilityForecast{Model: EWMA.String(), Points: points}, nil
}
