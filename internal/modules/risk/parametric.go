package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/formulas"
)

// NormalVaRES is the closed-form Normal VaR/ES for a distribution with the
// given mean and volatility:
//
//	z   = Φ⁻¹(c)
//	VaR = -μ + σ·z
//	ES  = -μ + σ·φ(z)/(1-c)
//
// The volatility models reuse it for their time-varying series.
func NormalVaRES(mean, vol, confidence float64) (float64, float64) {
	z := distuv.UnitNormal.Quantile(confidence)
	varValue := -mean + vol*z
	es := -mean + vol*distuv.UnitNormal.Prob(z)/(1-confidence)
	return varValue, es
}

// StudentTVaRES is the closed-form Student-t VaR/ES. The t distribution is
// rescaled by sqrt((ν-2)/ν) so that its variance equals vol².
//
//	q   = t_ν⁻¹(c)
//	s   = σ·sqrt((ν-2)/ν)
//	VaR = -μ + s·q
//	ES  = -μ + s·g_ν(q)/(1-c)·(ν+q²)/(ν-1)
func StudentTVaRES(mean, vol, nu, confidence float64) (float64, float64) {
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	q := t.Quantile(confidence)
	scale := vol * math.Sqrt((nu-2)/nu)

	varValue := -mean + scale*q
	es := -mean + scale*(t.Prob(q)/(1-confidence))*((nu+q*q)/(nu-1))
	return varValue, es
}

// ParametricNormalVaRES fits Normal(μ, σ²) to the sample and evaluates the
// closed form.
func ParametricNormalVaRES(returns []float64, confidence float64) (float64, float64, error) {
	if err := domain.ValidateConfidence(confidence); err != nil {
		return 0, 0, err
	}
	mean, std, err := fitMoments(returns)
	if err != nil {
		return 0, 0, err
	}
	varValue, es := NormalVaRES(mean, std, confidence)
	return varValue, es, nil
}

// ParametricStudentVaRES fits a variance-matched Student-t with nu degrees of
// freedom to the sample.
func ParametricStudentVaRES(returns []float64, confidence, nu float64) (float64, float64, error) {
	if err := domain.ValidateConfidence(confidence); err != nil {
		return 0, 0, err
	}
	if !(nu > 2) {
		return 0, 0, fmt.Errorf("%w: got %v", domain.ErrInvalidDegreesOfFreedom, nu)
	}
	mean, std, err := fitMoments(returns)
	if err != nil {
		return 0, 0, err
	}
	varValue, es := StudentTVaRES(mean, std, nu, confidence)
	return varValue, es, nil
}

// fitMoments returns the sample mean and standard deviation, rejecting
// samples a distribution cannot be fitted to.
func fitMoments(returns []float64) (float64, float64, error) {
	if len(returns) < 2 {
		return 0, 0, fmt.Errorf("%w: got %d", domain.ErrEmptyReturnSeries, len(returns))
	}
	mean, std := formulas.MeanStdDev(returns)
	if formulas.NearZero(std) || !formulas.IsFinite(std) {
		return 0, 0, fmt.Errorf("%w: std=%v over %d observations", domain.ErrDegenerateVariance, std, len(returns))
	}
	return mean, std, nil
}
