package risk

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/benupfin/riskengine/internal/domain"
)

const (
	// MaxMonteCarloPaths caps the number of simulated paths per estimate.
	MaxMonteCarloPaths = 1_000_000

	// MaxMonteCarloSamples caps the pooled sample, Paths × len(returns).
	MaxMonteCarloSamples = 20_000_000
)

// MonteCarloConfig controls the simulated sample.
type MonteCarloConfig struct {
	Paths   int
	Seed    uint64
	Workers int
}

// MonteCarloVaRES fits Normal(μ, σ²) to the sample, simulates Paths paths of
// len(returns) draws, pools them and applies the historical rule to the
// pooled sample.
//
// Path p draws from its own PCG stream keyed by (Seed, p), so the pooled
// sample does not depend on Workers or on scheduling order.
func MonteCarloVaRES(ctx context.Context, returns []float64, confidence float64, cfg MonteCarloConfig) (float64, float64, error) {
	if err := domain.ValidateConfidence(confidence); err != nil {
		return 0, 0, err
	}
	if cfg.Paths <= 0 || cfg.Paths > MaxMonteCarloPaths {
		return 0, 0, fmt.Errorf("%w: monte carlo paths must be in (0, %d], got %d",
			domain.ErrInvalidParameter, MaxMonteCarloPaths, cfg.Paths)
	}
	mean, std, err := fitMoments(returns)
	if err != nil {
		return 0, 0, err
	}

	n := len(returns)
	if cfg.Paths > MaxMonteCarloSamples/n {
		return 0, 0, fmt.Errorf("%w: %d paths of %d returns exceed the %d sample limit",
			domain.ErrInvalidParameter, cfg.Paths, n, MaxMonteCarloSamples)
	}
	pooled := make([]float64, cfg.Paths*n)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for path := 0; path < cfg.Paths; path++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dist := distuv.Normal{
				Mu:    mean,
				Sigma: std,
				Src:   rand.NewPCG(cfg.Seed, uint64(path)),
			}
			segment := pooled[path*n : (path+1)*n]
			for i := range segment {
				segment[i] = dist.Rand()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, fmt.Errorf("monte carlo simulation: %w", err)
	}

	sort.Float64s(pooled)
	return tailRisk(pooled, confidence)
}
