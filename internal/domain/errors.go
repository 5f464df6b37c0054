package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every estimator. All of them are recoverable at the
// call boundary; callers match with errors.Is.
var (
	ErrInvalidConfidenceLevel  = errors.New("confidence level must be in (0, 1)")
	ErrInvalidMethod           = errors.New("invalid method")
	ErrInvalidDegreesOfFreedom = errors.New("degrees of freedom must be greater than 2")
	ErrInsufficientData        = errors.New("insufficient data")
	ErrEmptyReturnSeries       = errors.New("return series needs at least 2 observations")
	ErrDegenerateVariance      = errors.New("sample standard deviation is zero")
	ErrDegeneratePortfolio     = errors.New("portfolio volatility is zero")
	ErrModelDidNotConverge     = errors.New("model did not converge")
	ErrWeightDimensionMismatch = errors.New("weights length does not match asset count")

	// ErrInvalidParameter covers numeric options outside their domain
	// (decay factor, window, trial count, concentration).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidPriceMatrix covers structural problems with the input prices.
	ErrInvalidPriceMatrix = errors.New("invalid price matrix")
)

// ValidateConfidence checks that c lies strictly inside (0, 1).
func ValidateConfidence(c float64) error {
	if !(c > 0 && c < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidenceLevel, c)
	}
	return nil
}
