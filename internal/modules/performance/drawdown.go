package performance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/benupfin/riskengine/internal/domain"
)

// DrawdownConvention selects how a decline from the running peak is measured.
type DrawdownConvention int

const (
	// Dollar is peak - price.
	Dollar DrawdownConvention = iota + 1
	// Percent is 1 - price/peak.
	Percent
	// Log is ln(peak) - ln(price).
	Log
)

// String returns the configuration tag of the convention.
func (c DrawdownConvention) String() string {
	switch c {
	case Dollar:
		return "dollar"
	case Percent:
		return "percent"
	case Log:
		return "log"
	default:
		return fmt.Sprintf("DrawdownConvention(%d)", int(c))
	}
}

// Validate reports ErrInvalidMethod for a value outside the known conventions.
func (c DrawdownConvention) Validate() error {
	switch c {
	case Dollar, Percent, Log:
		return nil
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidMethod, c)
	}
}

// ParseConvention maps a configuration tag to a DrawdownConvention.
func ParseConvention(tag string) (DrawdownConvention, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "dollar":
		return Dollar, nil
	case "percent":
		return Percent, nil
	case "log":
		return Log, nil
	default:
		return 0, fmt.Errorf("%w: unknown drawdown convention %q", domain.ErrInvalidMethod, tag)
	}
}

// Drawdown is the largest peak-to-trough decline and where it happened.
type Drawdown struct {
	Convention  string    `json:"convention"`
	MaxDrawdown float64   `json:"max_drawdown"`
	PeakDate    time.Time `json:"peak_date"`
	PeakPrice   float64   `json:"peak_price"`
	TroughDate  time.Time `json:"trough_date"`
	TroughPrice float64   `json:"trough_price"`
}

// AssetDrawdown ties a Drawdown to one asset.
type AssetDrawdown struct {
	Asset string `json:"asset"`
	Drawdown
}

// Drawdowns computes the maximum drawdown of every asset, in column order.
func Drawdowns(prices domain.PriceMatrix, convention DrawdownConvention) ([]AssetDrawdown, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	if err := convention.Validate(); err != nil {
		return nil, err
	}

	out := make([]AssetDrawdown, 0, len(prices.Assets))
	for _, asset := range prices.Assets {
		series, err := prices.Series(asset)
		if err != nil {
			return nil, err
		}
		dd, err := MaxDrawdown(series, convention)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset, err)
		}
		out = append(out, AssetDrawdown{Asset: asset, Drawdown: dd})
	}
	return out, nil
}

// MaxDrawdown scans prices left to right keeping a running peak. Only a
// strictly larger drawdown replaces the current maximum, so the first
// occurrence wins ties. A series that never declines reports 0 with peak and
// trough at the first observation.
func MaxDrawdown(prices domain.Series, convention DrawdownConvention) (Drawdown, error) {
	if len(prices.Values) == 0 || len(prices.Values) != len(prices.Dates) {
		return Drawdown{}, fmt.Errorf("%w: %d prices for %d dates", domain.ErrInsufficientData, len(prices.Values), len(prices.Dates))
	}

	var measure func(peak, price float64) float64
	switch convention {
	case Dollar:
		measure = func(peak, price float64) float64 { return peak - price }
	case Percent:
		measure = func(peak, price float64) float64 { return 1 - price/peak }
	case Log:
		measure = func(peak, price float64) float64 { return math.Log(peak) - math.Log(price) }
	default:
		return Drawdown{}, fmt.Errorf("%w: %s", domain.ErrInvalidMethod, convention)
	}
	if convention != Dollar {
		for i, p := range prices.Values {
			if !(p > 0) {
				return Drawdown{}, fmt.Errorf("%w: %s drawdown needs positive prices, got %v at %d",
					domain.ErrInvalidPriceMatrix, convention, p, i)
			}
		}
	}

	first := prices.Values[0]
	result := Drawdown{
		Convention:  convention.String(),
		PeakDate:    prices.Dates[0],
		PeakPrice:   first,
		TroughDate:  prices.Dates[0],
		TroughPrice: first,
	}

	peakDate, peak := prices.Dates[0], first
	for i, price := range prices.Values {
		if price > peak {
			peakDate, peak = prices.Dates[i], price
		}
		if dd := measure(peak, price); dd > result.MaxDrawdown {
			result.MaxDrawdown = dd
			result.PeakDate = peakDate
			result.PeakPrice = peak
			result.TroughDate = prices.Dates[i]
			result.TroughPrice = price
		}
	}

	return result, nil
}
