// Package handlers provides HTTP handlers for volatility forecasts.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/returns"
	"github.com/benupfin/riskengine/internal/modules/simulation"
	"github.com/benupfin/riskengine/internal/modules/volatility"
)

// Handler handles volatility HTTP requests
type Handler struct {
	builder    *returns.Builder
	service    *volatility.Service
	codec      *api.Codec
	defaults   volatility.Config
	confidence float64
	seed       uint64
	log        zerolog.Logger
}

// NewHandler creates a new volatility handler
func NewHandler(
	builder *returns.Builder,
	service *volatility.Service,
	codec *api.Codec,
	defaults volatility.Config,
	confidence float64,
	seed uint64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		builder:    builder,
		service:    service,
		codec:      codec,
		defaults:   defaults,
		confidence: confidence,
		seed:       seed,
		log:        log.With().Str("handler", "volatility").Logger(),
	}
}

type volatilityRequest struct {
	api.PriceRequest
	ReturnMethod  string    `json:"return_method"`
	Weights       []float64 `json:"weights"`
	WeightScheme  string    `json:"weight_scheme"`
	Seed          *uint64   `json:"seed"`
	Confidence    *float64  `json:"confidence"`
	Window        *int      `json:"window"`
	DecayFactor   *float64  `json:"decay_factor"`
	MaxIterations *int      `json:"max_iterations"`
}

// HandlePostForecast handles POST /api/volatility/{model}
func (h *Handler) HandlePostForecast(w http.ResponseWriter, r *http.Request) {
	model, err := volatility.ParseModel(chi.URLParam(r, "model"))
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	var req volatilityRequest
	if err := h.codec.Decode(r, &req); err != nil {
		h.codec.Error(w, r, err)
		return
	}

	cfg := h.defaults
	if req.Window != nil {
		cfg.Window = *req.Window
	}
	if req.DecayFactor != nil {
		cfg.DecayFactor = *req.DecayFactor
	}
	if req.MaxIterations != nil {
		cfg.MaxIterations = *req.MaxIterations
	}
	confidence := h.confidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	rm, err := api.BuildReturns(h.builder, req.PriceRequest, req.ReturnMethod)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	seed := h.seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	weights, err := simulation.ResolveWeights(req.WeightScheme, req.Weights, rm.NumAssets(), seed)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}
	// A single asset needs no weights.
	if len(weights) == 0 && rm.NumAssets() == 1 {
		weights = domain.Weights{1}
	}

	result, err := h.service.Run(r.Context(), rm, weights, model, cfg, confidence)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	h.codec.Respond(w, r, http.StatusOK, result)
}
