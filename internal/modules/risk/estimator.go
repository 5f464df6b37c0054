package risk

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/utils"
	"github.com/benupfin/riskengine/pkg/logger"
)

// Estimator dispatches VaR/ES requests to the selected methodology.
type Estimator struct {
	log     zerolog.Logger
	workers int
}

// NewEstimator creates a risk estimator. workers bounds Monte Carlo
// parallelism.
func NewEstimator(log zerolog.Logger, workers int) *Estimator {
	if workers <= 0 {
		workers = 1
	}
	return &Estimator{
		log:     logger.Component(log, "risk_estimator"),
		workers: workers,
	}
}

// Estimate computes VaR/ES for a single return sample.
func (e *Estimator) Estimate(ctx context.Context, returns []float64, opts Options) (domain.RiskMeasure, error) {
	if err := opts.Validate(); err != nil {
		return domain.RiskMeasure{}, err
	}
	return e.estimate(ctx, returns, opts, opts.Seed)
}

// EstimateAssets computes VaR/ES for every column of the return matrix, in
// asset order. Monte Carlo seeds are offset by the asset index so columns do
// not share a random stream.
func (e *Estimator) EstimateAssets(ctx context.Context, rm domain.ReturnMatrix, opts Options) (domain.AssetRiskMeasures, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	timer := utils.NewTimer("estimate_assets", e.log)

	out := make(domain.AssetRiskMeasures, 0, rm.NumAssets())
	for i, asset := range rm.Assets {
		measure, err := e.estimate(ctx, rm.Returns[i], opts, opts.Seed+uint64(i))
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset, err)
		}
		out = append(out, domain.AssetRiskMeasure{Asset: asset, RiskMeasure: measure})
	}

	timer.StopWithContext(map[string]interface{}{
		"method":     opts.Method.String(),
		"assets":     rm.NumAssets(),
		"returns":    rm.Len(),
		"confidence": opts.Confidence,
	})
	return out, nil
}

// EstimatePortfolio computes VaR/ES of the weighted portfolio return series.
func (e *Estimator) EstimatePortfolio(ctx context.Context, rm domain.ReturnMatrix, weights domain.Weights, opts Options) (domain.RiskMeasure, error) {
	if err := opts.Validate(); err != nil {
		return domain.RiskMeasure{}, err
	}
	series, err := rm.PortfolioReturns(weights)
	if err != nil {
		return domain.RiskMeasure{}, err
	}
	timer := utils.NewTimer("estimate_portfolio", e.log)

	measure, err := e.estimate(ctx, series.Values, opts, opts.Seed)
	if err != nil {
		return domain.RiskMeasure{}, fmt.Errorf("portfolio: %w", err)
	}

	timer.StopWithContext(map[string]interface{}{
		"method":     opts.Method.String(),
		"assets":     rm.NumAssets(),
		"returns":    series.Len(),
		"confidence": opts.Confidence,
	})
	return measure, nil
}

func (e *Estimator) estimate(ctx context.Context, returns []float64, opts Options, seed uint64) (domain.RiskMeasure, error) {
	var (
		varValue, es float64
		err          error
	)
	switch opts.Method {
	case Historical:
		varValue, es, err = HistoricalVaRES(returns, opts.Confidence)
	case ParametricNormal:
		varValue, es, err = ParametricNormalVaRES(returns, opts.Confidence)
	case ParametricStudent:
		varValue, es, err = ParametricStudentVaRES(returns, opts.Confidence, opts.DegreesOfFreedom)
	case MonteCarlo:
		varValue, es, err = MonteCarloVaRES(ctx, returns, opts.Confidence, MonteCarloConfig{
			Paths:   opts.Paths,
			Seed:    seed,
			Workers: e.workers,
		})
	default:
		err = fmt.Errorf("%w: %s", domain.ErrInvalidMethod, opts.Method)
	}
	if err != nil {
		return domain.RiskMeasure{}, err
	}

	return domain.RiskMeasure{
		Method:     opts.Method.String(),
		Confidence: opts.Confidence,
		VaR:        varValue,
		ES:         es,
	}, nil
}
