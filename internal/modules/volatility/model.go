// Package volatility produces time-indexed conditional mean/volatility
// forecasts (GARCH(1,1) with Student-t innovations, EWMA) and the
// time-varying VaR/ES series built from them.
package volatility

import (
	"fmt"
	"strings"

	"github.com/benupfin/riskengine/internal/domain"
)

// Model selects the volatility process.
type Model int

const (
	GARCH Model = iota + 1
	EWMA
)

// String returns the configuration tag of the model.
func (m Model) String() string {
	switch m {
	case GARCH:
		return "garch"
	case EWMA:
		return "ewma"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// ParseModel maps a configuration tag to a Model.
func ParseModel(tag string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "garch":
		return GARCH, nil
	case "ewma":
		return EWMA, nil
	default:
		return 0, fmt.Errorf("%w: unknown volatility model %q", domain.ErrInvalidMethod, tag)
	}
}

// Config holds the parameters of both models. Window is the lookback
// (EWMA) or burn-in (GARCH) length; no forecast is produced for a date
// without Window observations up to and including it.
type Config struct {
	Window        int
	DecayFactor   float64
	MaxIterations int
}

// DefaultConfig returns λ = 0.94 over a 100-observation window.
func DefaultConfig() Config {
	return Config{
		Window:        100,
		DecayFactor:   0.94,
		MaxIterations: 10000,
	}
}

func (c Config) validateWindow(n int) error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %d", domain.ErrInvalidParameter, c.Window)
	}
	if n < c.Window {
		return fmt.Errorf("%w: %d returns for a window of %d", domain.ErrInsufficientData, n, c.Window)
	}
	return nil
}
