// Package indicators computes technical indicators over a single price series.
// Leading dates without a full lookback are omitted from every output.
package indicators

import (
	"fmt"
	"strings"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/benupfin/riskengine/internal/domain"
)

// Indicator names a supported indicator.
type Indicator int

const (
	SMA Indicator = iota + 1
	MACD
	Bollinger
	RSI
	ROC
)

// String returns the configuration tag of the indicator.
func (i Indicator) String() string {
	switch i {
	case SMA:
		return "sma"
	case MACD:
		return "macd"
	case Bollinger:
		return "bollinger"
	case RSI:
		return "rsi"
	case ROC:
		return "roc"
	default:
		return fmt.Sprintf("Indicator(%d)", int(i))
	}
}

// ParseIndicator maps a configuration tag to an Indicator.
func ParseIndicator(tag string) (Indicator, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "sma":
		return SMA, nil
	case "macd":
		return MACD, nil
	case "bollinger":
		return Bollinger, nil
	case "rsi":
		return RSI, nil
	case "roc":
		return ROC, nil
	default:
		return 0, fmt.Errorf("%w: unknown indicator %q", domain.ErrInvalidMethod, tag)
	}
}

// Point is one indicator value.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Band is one Bollinger observation.
type Band struct {
	Date   time.Time `json:"date"`
	Upper  float64   `json:"upper"`
	Middle float64   `json:"middle"`
	Lower  float64   `json:"lower"`
}

// BollingerWidth is the number of standard deviations between the middle
// and the outer bands.
const BollingerWidth = 2.0

func checkSeries(series domain.Series, period, lookback int) error {
	if period < 1 {
		return fmt.Errorf("%w: period must be positive, got %d", domain.ErrInvalidParameter, period)
	}
	if len(series.Values) != len(series.Dates) {
		return fmt.Errorf("%w: %d prices for %d dates", domain.ErrInvalidPriceMatrix, len(series.Values), len(series.Dates))
	}
	if len(series.Values) <= lookback {
		return fmt.Errorf("%w: %d prices for a lookback of %d", domain.ErrInsufficientData, len(series.Values), lookback)
	}
	return nil
}

// trim drops the first lookback values, which talib leaves zero-filled.
func trim(dates []time.Time, values []float64, lookback int) []Point {
	out := make([]Point, 0, len(values)-lookback)
	for t := lookback; t < len(values); t++ {
		out = append(out, Point{Date: dates[t], Value: values[t]})
	}
	return out
}

// SimpleMovingAverage is the rolling mean over period prices.
func SimpleMovingAverage(series domain.Series, period int) ([]Point, error) {
	if err := checkSeries(series, period, period-1); err != nil {
		return nil, err
	}
	return trim(series.Dates, talib.Sma(series.Values, period), period-1), nil
}

// MovingAverageConvergence is SMA(fast) - SMA(slow), defined from the first
// full slow window.
func MovingAverageConvergence(series domain.Series, fast, slow int) ([]Point, error) {
	if fast < 1 || fast >= slow {
		return nil, fmt.Errorf("%w: fast period %d must be below slow period %d", domain.ErrInvalidParameter, fast, slow)
	}
	if err := checkSeries(series, slow, slow-1); err != nil {
		return nil, err
	}
	fastMA := talib.Sma(series.Values, fast)
	slowMA := talib.Sma(series.Values, slow)
	diff := make([]float64, len(series.Values))
	for t := slow - 1; t < len(diff); t++ {
		diff[t] = fastMA[t] - slowMA[t]
	}
	return trim(series.Dates, diff, slow-1), nil
}

// BollingerBands is the period SMA with bands at ±2 population standard
// deviations of the same window.
func BollingerBands(series domain.Series, period int) ([]Band, error) {
	if err := checkSeries(series, period, period-1); err != nil {
		return nil, err
	}
	upper, middle, lower := talib.BBands(series.Values, period, BollingerWidth, BollingerWidth, talib.SMA)

	out := make([]Band, 0, len(series.Values)-period+1)
	for t := period - 1; t < len(series.Values); t++ {
		out = append(out, Band{
			Date:   series.Dates[t],
			Upper:  upper[t],
			Middle: middle[t],
			Lower:  lower[t],
		})
	}
	return out, nil
}

// RelativeStrength is Wilder's RSI on a 0-100 scale. The first value needs
// period price changes, i.e. period+1 prices.
func RelativeStrength(series domain.Series, period int) ([]Point, error) {
	if period < 2 {
		return nil, fmt.Errorf("%w: RSI period must be at least 2, got %d", domain.ErrInvalidParameter, period)
	}
	if err := checkSeries(series, period, period); err != nil {
		return nil, err
	}
	return trim(series.Dates, talib.Rsi(series.Values, period), period), nil
}

// RateOfChange is the percent change over period observations.
func RateOfChange(series domain.Series, period int) ([]Point, error) {
	if err := checkSeries(series, period, period); err != nil {
		return nil, err
	}
	for i, p := range series.Values[:len(series.Values)-period] {
		if p == 0 {
			return nil, fmt.Errorf("%w: zero price at %d", domain.ErrInvalidPriceMatrix, i)
		}
	}
	return trim(series.Dates, talib.Roc(series.Values, period), period), nil
}
