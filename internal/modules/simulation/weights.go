package simulation

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/benupfin/riskengine/internal/domain"
)

// EqualWeights allocates 1/n to every asset.
func EqualWeights(n int) (domain.Weights, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d assets", domain.ErrWeightDimensionMismatch, n)
	}
	w := make(domain.Weights, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w, nil
}

// RandomWeights draws n uniform values and normalises them to sum to 1.
func RandomWeights(n int, seed uint64) (domain.Weights, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d assets", domain.ErrWeightDimensionMismatch, n)
	}
	rng := rand.New(rand.NewPCG(seed, 0))
	w := make([]float64, n)
	for i := range w {
		// (0, 1] keeps the sum strictly positive
		w[i] = 1 - rng.Float64()
	}
	floats.Scale(1/floats.Sum(w), w)
	return domain.Weights(w), nil
}

// ResolveWeights returns the explicit weights when scheme is empty, or
// generates n weights for the named scheme ("equal" or "random"). Naming a
// scheme together with explicit weights is rejected.
func ResolveWeights(scheme string, explicit []float64, n int, seed uint64) (domain.Weights, error) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" {
		return domain.Weights(explicit), nil
	}
	if len(explicit) > 0 {
		return nil, fmt.Errorf("%w: weights and weight scheme %q are mutually exclusive", domain.ErrInvalidParameter, scheme)
	}
	switch scheme {
	case "equal":
		return EqualWeights(n)
	case "random":
		return RandomWeights(n, seed)
	default:
		return nil, fmt.Errorf("%w: unknown weight scheme %q", domain.ErrInvalidMethod, scheme)
	}
}
