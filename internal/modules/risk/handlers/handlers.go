// Package handlers provides HTTP handlers for VaR/ES estimation.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/returns"
	"github.com/benupfin/riskengine/internal/modules/risk"
	"github.com/benupfin/riskengine/internal/modules/simulation"
)

// Handler handles risk estimation HTTP requests
type Handler struct {
	builder   *returns.Builder
	estimator *risk.Estimator
	codec     *api.Codec
	defaults  risk.Options
	log       zerolog.Logger
}

// NewHandler creates a new risk handler. defaults fill every option a
// request leaves out.
func NewHandler(
	builder *returns.Builder,
	estimator *risk.Estimator,
	codec *api.Codec,
	defaults risk.Options,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		builder:   builder,
		estimator: estimator,
		codec:     codec,
		defaults:  defaults,
		log:       log.With().Str("handler", "risk").Logger(),
	}
}

// riskRequest is the body of both risk endpoints.
type riskRequest struct {
	api.PriceRequest
	ReturnMethod     string    `json:"return_method"`
	Method           string    `json:"method"`
	Confidence       *float64  `json:"confidence"`
	DegreesOfFreedom *float64  `json:"degrees_of_freedom"`
	Paths            *int      `json:"paths" validate:"omitempty,gt=0,lte=1000000"`
	Seed             *uint64   `json:"seed"`
	Weights          []float64 `json:"weights"`
	WeightScheme     string    `json:"weight_scheme"`
}

func (h *Handler) options(req riskRequest) (risk.Options, error) {
	opts := h.defaults
	if req.Method != "" {
		m, err := risk.ParseMethod(req.Method)
		if err != nil {
			return risk.Options{}, err
		}
		opts.Method = m
	}
	if req.Confidence != nil {
		opts.Confidence = *req.Confidence
	}
	if req.DegreesOfFreedom != nil {
		opts.DegreesOfFreedom = *req.DegreesOfFreedom
	}
	if req.Paths != nil {
		opts.Paths = *req.Paths
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	return opts, opts.Validate()
}

func (h *Handler) prepare(r *http.Request) (riskRequest, domain.ReturnMatrix, risk.Options, error) {
	var req riskRequest
	if err := h.codec.Decode(r, &req); err != nil {
		return req, domain.ReturnMatrix{}, risk.Options{}, err
	}
	opts, err := h.options(req)
	if err != nil {
		return req, domain.ReturnMatrix{}, risk.Options{}, err
	}
	rm, err := api.BuildReturns(h.builder, req.PriceRequest, req.ReturnMethod)
	if err != nil {
		return req, domain.ReturnMatrix{}, risk.Options{}, err
	}
	return req, rm, opts, nil
}

// HandlePostAssetRisk handles POST /api/risk/assets
func (h *Handler) HandlePostAssetRisk(w http.ResponseWriter, r *http.Request) {
	_, rm, opts, err := h.prepare(r)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	measures, err := h.estimator.EstimateAssets(r.Context(), rm, opts)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	h.codec.Respond(w, r, http.StatusOK, map[string]interface{}{
		"measures":     measures,
		"observations": rm.Len(),
	})
}

// HandlePostPortfolioRisk handles POST /api/risk/portfolio
func (h *Handler) HandlePostPortfolioRisk(w http.ResponseWriter, r *http.Request) {
	req, rm, opts, err := h.prepare(r)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	weights, err := simulation.ResolveWeights(req.WeightScheme, req.Weights, rm.NumAssets(), opts.Seed)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	measure, err := h.estimator.EstimatePortfolio(r.Context(), rm, weights, opts)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	h.codec.Respond(w, r, http.StatusOK, map[string]interface{}{
		"measure":      measure,
		"weights":      weights,
		"observations": rm.Len(),
	})
}
