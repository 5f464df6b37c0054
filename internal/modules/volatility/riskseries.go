package volatility

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/risk"
	"github.com/benupfin/riskengine/internal/utils"
	"github.com/benupfin/riskengine/pkg/logger"
)

// RiskSeries converts a forecast into time-varying VaR/ES using the Normal
// quantile at every date.
func RiskSeries(forecast domain.VolatilityForecast, confidence float64) (domain.RiskSeries, error) {
	if err := domain.ValidateConfidence(confidence); err != nil {
		return nil, err
	}
	out := make(domain.RiskSeries, len(forecast.Points))
	for i, p := range forecast.Points {
		varValue, es := risk.NormalVaRES(p.Mean, p.Volatility, confidence)
		out[i] = domain.RiskPoint{Date: p.Date, VaR: varValue, ES: es}
	}
	return out, nil
}

// Result bundles a forecast with its risk series.
type Result struct {
	Forecast   domain.VolatilityForecast `json:"forecast"`
	RiskSeries domain.RiskSeries         `json:"risk_series"`
	// GARCH is set only for the GARCH model.
	GARCH *GARCHParams `json:"garch,omitempty"`
}

// Service runs a volatility model over a portfolio return series.
type Service struct {
	log zerolog.Logger
}

// NewService creates a volatility service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: logger.Component(log, "volatility"),
	}
}

// Run computes the forecast and risk series of the weighted portfolio.
func (s *Service) Run(ctx context.Context, rm domain.ReturnMatrix, weights domain.Weights, model Model, cfg Config, confidence float64) (Result, error) {
	if err := domain.ValidateConfidence(confidence); err != nil {
		return Result{}, err
	}
	series, err := rm.PortfolioReturns(weights)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	timer := utils.NewTimer("volatility_"+model.String(), s.log)

	var result Result
	switch model {
	case GARCH:
		forecast, params, err := GARCHForecast(series, cfg)
		if err != nil {
			s.log.Warn().Err(err).Int("returns", series.Len()).Msg("GARCH fit failed")
			return Result{}, err
		}
		result.Forecast = forecast
		result.GARCH = &params
	case EWMA:
		forecast, err := EWMAForecast(series, cfg)
		if err != nil {
			return Result{}, err
		}
		result.Forecast = forecast
	default:
		return Result{}, fmt.Errorf("%w: %s", domain.ErrInvalidMethod, model)
	}

	result.RiskSeries, err = RiskSeries(result.Forecast, confidence)
	if err != nil {
		return Result{}, err
	}

	timer.StopWithContext(map[string]interface{}{
		"returns":   series.Len(),
		"forecasts": result.Forecast.Len(),
		"window":    cfg.Window,
	})
	return result, nil
}
