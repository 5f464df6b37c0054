package performance

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/formulas"
)

// JensenAlpha regresses returns on benchmark returns and reports the
// intercept (alpha) and slope (beta). Both series must already be aligned on
// the same dates.
func JensenAlpha(returns, benchmark []float64) (alpha, beta float64, err error) {
	if len(returns) != len(benchmark) {
		return 0, 0, fmt.Errorf("%w: %d returns against %d benchmark returns", domain.ErrInvalidParameter, len(returns), len(benchmark))
	}
	if len(returns) < 2 {
		return 0, 0, fmt.Errorf("%w: got %d", domain.ErrEmptyReturnSeries, len(returns))
	}
	if formulas.NearZero(formulas.StdDev(benchmark)) {
		return 0, 0, fmt.Errorf("%w: benchmark returns are constant", domain.ErrDegenerateVariance)
	}

	alpha, beta = stat.LinearRegression(benchmark, returns, nil, false)
	return alpha, beta, nil
}
