// Package handlers provides HTTP handlers for portfolio simulation.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/returns"
	"github.com/benupfin/riskengine/internal/modules/simulation"
)

// Handler handles portfolio simulation HTTP requests
type Handler struct {
	builder   *returns.Builder
	simulator *simulation.Simulator
	codec     *api.Codec
	defaults  simulation.Config
	log       zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(
	builder *returns.Builder,
	simulator *simulation.Simulator,
	codec *api.Codec,
	defaults simulation.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		builder:   builder,
		simulator: simulator,
		codec:     codec,
		defaults:  defaults,
		log:       log.With().Str("handler", "simulation").Logger(),
	}
}

type frontierRequest struct {
	api.PriceRequest
	ReturnMethod  string   `json:"return_method"`
	Trials        *int     `json:"trials" validate:"omitempty,gt=0,lte=1000000"`
	RiskFreeRate  *float64 `json:"risk_free_rate"`
	AllowShort    *bool    `json:"allow_short"`
	Concentration *float64 `json:"concentration"`
	Seed          *uint64  `json:"seed"`
	// IncludePortfolios returns every trial, not just the frontier picks.
	IncludePortfolios bool `json:"include_portfolios"`
}

// frontierResponse always carries the selected portfolios; the full trial
// set is optional because it can be large.
type frontierResponse struct {
	Assets        []string                    `json:"assets"`
	Trials        int                         `json:"trials"`
	Excluded      int                         `json:"excluded"`
	MaxSharpe     domain.SimulatedPortfolio   `json:"max_sharpe"`
	MinVolatility domain.SimulatedPortfolio   `json:"min_volatility"`
	Portfolios    []domain.SimulatedPortfolio `json:"portfolios,omitempty"`
}

// HandlePostFrontier handles POST /api/simulation/frontier
func (h *Handler) HandlePostFrontier(w http.ResponseWriter, r *http.Request) {
	var req frontierRequest
	if err := h.codec.Decode(r, &req); err != nil {
		h.codec.Error(w, r, err)
		return
	}

	cfg := h.defaults
	if req.Trials != nil {
		cfg.Trials = *req.Trials
	}
	if req.RiskFreeRate != nil {
		cfg.RiskFreeRate = *req.RiskFreeRate
	}
	if req.AllowShort != nil {
		cfg.AllowShort = *req.AllowShort
	}
	if req.Concentration != nil {
		cfg.Concentration = *req.Concentration
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}

	rm, err := api.BuildReturns(h.builder, req.PriceRequest, req.ReturnMethod)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	result, err := h.simulator.Simulate(r.Context(), rm, cfg)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	// Simulate never returns an empty result without an error.
	best, _ := result.MaxSharpe()
	safest, _ := result.MinVolatility()

	resp := frontierResponse{
		Assets:        result.Assets,
		Trials:        cfg.Trials,
		Excluded:      result.Excluded,
		MaxSharpe:     best,
		MinVolatility: safest,
	}
	if req.IncludePortfolios {
		resp.Portfolios = result.Portfolios
	}

	h.codec.Respond(w, r, http.StatusOK, resp)
}
