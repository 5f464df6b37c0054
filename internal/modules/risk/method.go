// Package risk estimates Value-at-Risk and Expected Shortfall for single
// return samples, every column of a return matrix, and weighted portfolios.
//
// Sign convention: VaR and ES are positive loss magnitudes. A sample whose
// (1-c) percentile is -2% has a VaR of 0.02.
package risk

import (
	"fmt"
	"strings"

	"github.com/benupfin/riskengine/internal/domain"
)

// Method selects the VaR/ES methodology.
type Method int

const (
	Historical Method = iota + 1
	ParametricNormal
	ParametricStudent
	MonteCarlo
)

// String returns the configuration tag of the method.
func (m Method) String() string {
	switch m {
	case Historical:
		return "historical"
	case ParametricNormal:
		return "parametric-normal"
	case ParametricStudent:
		return "parametric-student"
	case MonteCarlo:
		return "monte-carlo"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a configuration tag to a Method.
func ParseMethod(tag string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "historical":
		return Historical, nil
	case "parametric-normal":
		return ParametricNormal, nil
	case "parametric-student":
		return ParametricStudent, nil
	case "monte-carlo":
		return MonteCarlo, nil
	default:
		return 0, fmt.Errorf("%w: unknown risk method %q", domain.ErrInvalidMethod, tag)
	}
}

// Options configures one estimation run.
type Options struct {
	Confidence float64
	Method     Method

	// DegreesOfFreedom is required by ParametricStudent.
	DegreesOfFreedom float64

	// Paths and Seed drive MonteCarlo. Each simulated path draws as many
	// returns as the input sample holds.
	Paths int
	Seed  uint64
}

// DefaultOptions returns historical VaR/ES at 95%.
func DefaultOptions() Options {
	return Options{
		Confidence:       0.95,
		Method:           Historical,
		DegreesOfFreedom: 5,
		Paths:            1000,
		Seed:             42,
	}
}

// Validate checks the options that do not depend on the sample.
func (o Options) Validate() error {
	if err := domain.ValidateConfidence(o.Confidence); err != nil {
		return err
	}
	switch o.Method {
	case Historical, ParametricNormal:
	case ParametricStudent:
		if !(o.DegreesOfFreedom > 2) {
			return fmt.Errorf("%w: got %v", domain.ErrInvalidDegreesOfFreedom, o.DegreesOfFreedom)
		}
	case MonteCarlo:
		if o.Paths <= 0 || o.Paths > MaxMonteCarloPaths {
			return fmt.Errorf("%w: monte carlo paths must be in (0, %d], got %d",
				domain.ErrInvalidParameter, MaxMonteCarloPaths, o.Paths)
		}
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidMethod, o.Method)
	}
	return nil
}
