// Package simulation evaluates many random portfolios over a return matrix to
// approximate the efficient frontier.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/utils"
	"github.com/benupfin/riskengine/pkg/formulas"
	"github.com/benupfin/riskengine/pkg/logger"
)

// trialsPerTask is how many trials one errgroup task evaluates.
const trialsPerTask = 256

// Config controls a simulation run.
type Config struct {
	Trials       int
	RiskFreeRate float64
	// AllowShort flips the sign of the whole weight vector with
	// probability 0.5. Individual assets are never shorted on their own.
	AllowShort bool
	// Concentration is the uniform Dirichlet parameter. Small values bias
	// draws toward sparse portfolios.
	Concentration float64
	Seed          uint64
}

// DefaultConfig returns 10000 long-only trials at concentration 0.05.
func DefaultConfig() Config {
	return Config{
		Trials:        10000,
		Concentration: 0.05,
		Seed:          42,
	}
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trials must be positive, got %d", domain.ErrInvalidParameter, c.Trials)
	}
	if !(c.Concentration > 0) || math.IsInf(c.Concentration, 0) {
		return fmt.Errorf("%w: concentration must be positive, got %v", domain.ErrInvalidParameter, c.Concentration)
	}
	if !formulas.IsFinite(c.RiskFreeRate) {
		return fmt.Errorf("%w: risk-free rate must be finite", domain.ErrInvalidParameter)
	}
	return nil
}

// Simulator draws and evaluates random portfolios.
type Simulator struct {
	log     zerolog.Logger
	workers int
}

// NewSimulator creates a simulator running at most workers trial batches at
// once.
func NewSimulator(log zerolog.Logger, workers int) *Simulator {
	if workers <= 0 {
		workers = 1
	}
	return &Simulator{
		log:     logger.Component(log, "portfolio_simulator"),
		workers: workers,
	}
}

// moments are the annualization inputs shared read-only by every trial.
type moments struct {
	means []float64
	cov   *mat.SymDense
	days  float64
}

func estimateMoments(rm domain.ReturnMatrix) (moments, error) {
	if rm.NumAssets() == 0 {
		return moments{}, fmt.Errorf("%w: no assets", domain.ErrInvalidPriceMatrix)
	}
	if rm.Len() < 2 {
		return moments{}, fmt.Errorf("%w: got %d", domain.ErrEmptyReturnSeries, rm.Len())
	}

	days := rm.Dates[rm.Len()-1].Sub(rm.Dates[0]).Hours() / 24
	if !(days > 0) {
		return moments{}, fmt.Errorf("%w: returns span no calendar time", domain.ErrInsufficientData)
	}

	means := make([]float64, rm.NumAssets())
	for a := range means {
		means[a] = stat.Mean(rm.Returns[a], nil)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, rm.Dense(), nil)

	return moments{means: means, cov: &cov, days: days}, nil
}

// evaluate annualizes one weight vector. ok is false for a degenerate
// portfolio.
func (m moments) evaluate(w []float64, riskFree float64) (ret, vol, sharpe float64, ok bool) {
	for i, v := range w {
		if !formulas.IsFinite(v) {
			return 0, 0, 0, false
		}
		ret += m.means[i] * v
	}
	ret *= m.days

	wv := mat.NewVecDense(len(w), w)
	variance := mat.Inner(wv, m.cov, wv)
	if !(variance > 0) || formulas.NearZero(math.Sqrt(variance)) {
		return 0, 0, 0, false
	}
	vol = math.Sqrt(variance) * math.Sqrt(m.days)
	sharpe = (ret - riskFree) / vol
	return ret, vol, sharpe, true
}

// Simulate draws cfg.Trials Dirichlet weight vectors and evaluates each
// portfolio's annualized return, volatility and Sharpe ratio.
//
// Trial i uses its own generator seeded with (cfg.Seed, i); the result is in
// trial order and identical for any worker count. Degenerate trials are
// excluded and counted. If every trial is degenerate the run fails with
// ErrDegeneratePortfolio.
func (s *Simulator) Simulate(ctx context.Context, rm domain.ReturnMatrix, cfg Config) (domain.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return domain.SimulationResult{}, err
	}
	m, err := estimateMoments(rm)
	if err != nil {
		return domain.SimulationResult{}, err
	}
	timer := utils.NewTimer("simulate_portfolios", s.log)

	alpha := make([]float64, rm.NumAssets())
	for i := range alpha {
		alpha[i] = cfg.Concentration
	}

	slots := make([]domain.SimulatedPortfolio, cfg.Trials)
	valid := make([]bool, cfg.Trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for start := 0; start < cfg.Trials; start += trialsPerTask {
		end := min(start+trialsPerTask, cfg.Trials)
		g.Go(func() error {
			for trial := start; trial < end; trial++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng := rand.New(rand.NewPCG(cfg.Seed, uint64(trial)))
				w := distmv.NewDirichlet(alpha, rng).Rand(nil)
				if cfg.AllowShort && rng.IntN(2) == 1 {
					for i := range w {
						w[i] = -w[i]
					}
				}

				ret, vol, sharpe, ok := m.evaluate(w, cfg.RiskFreeRate)
				if !ok {
					continue
				}
				slots[trial] = domain.SimulatedPortfolio{
					Trial:      trial,
					Weights:    w,
					Volatility: vol,
					Return:     ret,
					Sharpe:     sharpe,
				}
				valid[trial] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SimulationResult{}, fmt.Errorf("portfolio simulation: %w", err)
	}

	result := domain.SimulationResult{
		Assets:     append([]string(nil), rm.Assets...),
		Portfolios: make([]domain.SimulatedPortfolio, 0, cfg.Trials),
	}
	for trial, ok := range valid {
		if !ok {
			result.Excluded++
			continue
		}
		result.Portfolios = append(result.Portfolios, slots[trial])
	}

	if result.Excluded > 0 {
		s.log.Warn().
			Int("excluded", result.Excluded).
			Int("trials", cfg.Trials).
			Msg("Excluded degenerate portfolios")
	}
	if len(result.Portfolios) == 0 {
		return domain.SimulationResult{}, fmt.Errorf("%w: all %d trials degenerate", domain.ErrDegeneratePortfolio, cfg.Trials)
	}

	timer.StopWithContext(map[string]interface{}{
		"trials":      cfg.Trials,
		"assets":      rm.NumAssets(),
		"excluded":    result.Excluded,
		"allow_short": cfg.AllowShort,
	})
	return result, nil
}
