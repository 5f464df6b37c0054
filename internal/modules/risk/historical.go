package risk

import (
	"fmt"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/formulas"
)

// HistoricalVaRES computes VaR and ES from the empirical distribution of
// returns.
//
// VaR is the negated (1-c) percentile with linear interpolation between order
// statistics. ES is the negated mean of every return at or below that cutoff;
// when the tail holds a single observation ES is reported equal to VaR.
func HistoricalVaRES(returns []float64, confidence float64) (float64, float64, error) {
	if err := domain.ValidateConfidence(confidence); err != nil {
		return 0, 0, err
	}
	if len(returns) < 2 {
		return 0, 0, fmt.Errorf("%w: got %d", domain.ErrEmptyReturnSeries, len(returns))
	}
	return tailRisk(formulas.Sorted(returns), confidence)
}

// tailRisk applies the percentile/tail-mean rule to an ascending sample.
func tailRisk(sorted []float64, confidence float64) (float64, float64, error) {
	cutoff := formulas.Percentile(sorted, (1-confidence)*100)
	tailMean, count := formulas.TailMean(sorted, cutoff)
	if count == 0 || !formulas.IsFinite(cutoff) || !formulas.IsFinite(tailMean) {
		return 0, 0, fmt.Errorf("%w: tail of %d observations is undefined", domain.ErrInsufficientData, len(sorted))
	}

	varValue := -cutoff
	if count == 1 {
		return varValue, varValue, nil
	}
	return varValue, -tailMean, nil
}
