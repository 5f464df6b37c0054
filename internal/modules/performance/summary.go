package performance

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/utils"
	"github.com/benupfin/riskengine/pkg/formulas"
	"github.com/benupfin/riskengine/pkg/logger"
)

// SummaryOptions configures a per-asset report.
type SummaryOptions struct {
	BenchmarkRate float64
	Convention    DrawdownConvention
	// BenchmarkAsset, when set, names the column the other assets are
	// regressed on for Jensen alpha.
	BenchmarkAsset string
}

// AssetSummary is the report row of one asset. A metric that is undefined
// for the series is nil and the reason is listed in Unavailable.
type AssetSummary struct {
	Asset                string    `json:"asset"`
	Years                float64   `json:"years"`
	CAGR                 *float64  `json:"cagr"`
	AnnualizedVolatility *float64  `json:"annualized_volatility"`
	SharpeRatio          *float64  `json:"sharpe_ratio"`
	SortinoRatio         *float64  `json:"sortino_ratio"`
	JensenAlpha          *float64  `json:"jensen_alpha,omitempty"`
	Beta                 *float64  `json:"beta,omitempty"`
	Drawdown             *Drawdown `json:"drawdown"`
	Unavailable          []string  `json:"unavailable,omitempty"`
}

// Reporter builds performance summaries.
type Reporter struct {
	log zerolog.Logger
}

// NewReporter creates a performance reporter.
func NewReporter(log zerolog.Logger) *Reporter {
	return &Reporter{
		log: logger.Component(log, "performance"),
	}
}

// Summarize reports every asset of the matrix, in column order.
func (r *Reporter) Summarize(prices domain.PriceMatrix, opts SummaryOptions) ([]AssetSummary, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	if opts.Convention == 0 {
		opts.Convention = Dollar
	}
	if err := opts.Convention.Validate(); err != nil {
		return nil, err
	}
	defer utils.OperationTimer("performance_summary", r.log)()

	var benchmark []float64
	if opts.BenchmarkAsset != "" {
		series, err := prices.Series(opts.BenchmarkAsset)
		if err != nil {
			return nil, err
		}
		benchmark = formulas.CalculateReturns(series.Values)
	}

	out := make([]AssetSummary, 0, len(prices.Assets))
	for _, asset := range prices.Assets {
		series, err := prices.Series(asset)
		if err != nil {
			return nil, err
		}
		m, err := NewMetrics(series)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset, err)
		}

		s := AssetSummary{Asset: asset, Years: m.Years()}
		record := func(name string, v float64, err error) *float64 {
			if err != nil {
				s.Unavailable = append(s.Unavailable, fmt.Sprintf("%s: %v", name, err))
				return nil
			}
			return &v
		}

		cagr, err := m.CAGR()
		s.CAGR = record("cagr", cagr, err)
		vol, err := m.AnnualizedVolatility()
		s.AnnualizedVolatility = record("annualized_volatility", vol, err)
		sharpe, err := m.SharpeRatio(opts.BenchmarkRate)
		s.SharpeRatio = record("sharpe_ratio", sharpe, err)
		sortino, err := m.SortinoRatio(opts.BenchmarkRate)
		s.SortinoRatio = record("sortino_ratio", sortino, err)

		if dd, err := m.MaxDrawdown(opts.Convention); err != nil {
			s.Unavailable = append(s.Unavailable, fmt.Sprintf("drawdown: %v", err))
		} else {
			s.Drawdown = &dd
		}

		if benchmark != nil && asset != opts.BenchmarkAsset {
			x, y := alignedReturns(benchmark, formulas.CalculateReturns(series.Values))
			alpha, beta, err := JensenAlpha(y, x)
			s.JensenAlpha = record("jensen_alpha", alpha, err)
			if err == nil {
				s.Beta = &beta
			}
		}

		if len(s.Unavailable) > 0 {
			r.log.Debug().Str("asset", asset).Strs("unavailable", s.Unavailable).Msg("Some metrics undefined")
		}
		out = append(out, s)
	}

	return out, nil
}

// alignedReturns keeps the periods where both returns are defined.
func alignedReturns(a, b []float64) ([]float64, []float64) {
	outA := make([]float64, 0, len(a))
	outB := make([]float64, 0, len(b))
	for i := range a {
		if formulas.IsFinite(a[i]) && formulas.IsFinite(b[i]) {
			outA = append(outA, a[i])
			outB = append(outB, b[i])
		}
	}
	return outA, outB
}
