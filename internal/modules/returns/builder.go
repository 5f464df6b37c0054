// Package returns converts price matrices into one-period return matrices.
package returns

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/formulas"
	"github.com/benupfin/riskengine/pkg/logger"
)

// Method selects how one-period returns are computed.
type Method int

const (
	// Percent is the simple change p_t/p_{t-1} - 1.
	Percent Method = iota + 1
	// Log is the continuously compounded change ln(p_t/p_{t-1}).
	Log
)

// String returns the configuration tag of the method.
func (m Method) String() string {
	switch m {
	case Percent:
		return "percent"
	case Log:
		return "log"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a configuration tag to a Method.
func ParseMethod(tag string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "percent":
		return Percent, nil
	case "log":
		return Log, nil
	default:
		return 0, fmt.Errorf("%w: unknown return method %q", domain.ErrInvalidMethod, tag)
	}
}

// Builder turns a PriceMatrix into a ReturnMatrix.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a return builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: logger.Component(log, "return_builder"),
	}
}

// Build computes per-asset returns. Each asset is processed independently;
// a date is dropped when any asset has an undefined return on it, so no NaN
// ever reaches the estimators.
func (b *Builder) Build(prices domain.PriceMatrix, method Method) (domain.ReturnMatrix, error) {
	if method != Percent && method != Log {
		return domain.ReturnMatrix{}, fmt.Errorf("%w: %s", domain.ErrInvalidMethod, method)
	}
	if err := prices.Validate(); err != nil {
		return domain.ReturnMatrix{}, err
	}
	if prices.Len() < 2 {
		return domain.ReturnMatrix{}, fmt.Errorf("%w: need at least 2 price observations, got %d", domain.ErrInsufficientData, prices.Len())
	}

	numAssets := len(prices.Assets)
	raw := make([][]float64, numAssets)
	for a := 0; a < numAssets; a++ {
		raw[a] = columnReturns(prices.Prices[a], method)
	}

	// Keep only rows where every asset has a defined return.
	periods := prices.Len() - 1
	keep := make([]int, 0, periods)
	for t := 0; t < periods; t++ {
		defined := true
		for a := 0; a < numAssets; a++ {
			if !formulas.IsFinite(raw[a][t]) {
				defined = false
				break
			}
		}
		if defined {
			keep = append(keep, t)
		}
	}

	if len(keep) == 0 {
		return domain.ReturnMatrix{}, fmt.Errorf("%w: all %d return rows are undefined", domain.ErrInsufficientData, periods)
	}
	if dropped := periods - len(keep); dropped > 0 {
		b.log.Warn().
			Int("dropped_rows", dropped).
			Int("periods", periods).
			Msg("Dropped return rows with undefined values")
	}

	dates := make([]time.Time, len(keep))
	out := make([][]float64, numAssets)
	for a := range out {
		out[a] = make([]float64, len(keep))
	}
	for i, t := range keep {
		dates[i] = prices.Dates[t+1]
		for a := 0; a < numAssets; a++ {
			out[a][i] = raw[a][t]
		}
	}

	assets := make([]string, numAssets)
	copy(assets, prices.Assets)

	b.log.Debug().
		Str("method", method.String()).
		Int("num_assets", numAssets).
		Int("num_returns", len(keep)).
		Msg("Built return matrix")

	return domain.ReturnMatrix{
		Dates:   dates,
		Assets:  assets,
		Returns: out,
	}, nil
}

// columnReturns computes one asset's returns; undefined entries are NaN.
func columnReturns(prices []float64, method Method) []float64 {
	simple := formulas.CalculateReturns(prices)
	if method == Percent {
		return simple
	}
	out := make([]float64, len(simple))
	for i, r := range simple {
		// log(1 + r) of a non-positive gross return is undefined
		if !formulas.IsFinite(r) || 1+r <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log1p(r)
	}
	return out
}
