// Package handlers provides HTTP handlers for technical indicators.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/indicators"
)

// Default lookbacks when a request leaves them out.
const (
	DefaultPeriod    = 20
	DefaultRSIPeriod = 14
	DefaultFast      = 12
	DefaultSlow      = 26
)

// Handler handles indicator HTTP requests
type Handler struct {
	codec *api.Codec
	log   zerolog.Logger
}

// NewHandler creates a new indicators handler
func NewHandler(codec *api.Codec, log zerolog.Logger) *Handler {
	return &Handler{
		codec: codec,
		log:   log.With().Str("handler", "indicators").Logger(),
	}
}

type indicatorRequest struct {
	api.PriceRequest
	// Asset selects the column; optional for a single-asset matrix.
	Asset  string `json:"asset"`
	Period *int   `json:"period" validate:"omitempty,gt=0"`
	Fast   *int   `json:"fast" validate:"omitempty,gt=0"`
	Slow   *int   `json:"slow" validate:"omitempty,gt=0"`
}

func (req indicatorRequest) series() (domain.Series, string, error) {
	pm, err := req.Matrix()
	if err != nil {
		return domain.Series{}, "", err
	}
	asset := req.Asset
	if asset == "" {
		if len(pm.Assets) != 1 {
			return domain.Series{}, "", fmt.Errorf("%w: asset is required for %d columns", domain.ErrInvalidParameter, len(pm.Assets))
		}
		asset = pm.Assets[0]
	}
	series, err := pm.Series(asset)
	return series, asset, err
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// HandlePostIndicator handles POST /api/indicators/{name}
func (h *Handler) HandlePostIndicator(w http.ResponseWriter, r *http.Request) {
	indicator, err := indicators.ParseIndicator(chi.URLParam(r, "name"))
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	var req indicatorRequest
	if err := h.codec.Decode(r, &req); err != nil {
		h.codec.Error(w, r, err)
		return
	}

	series, asset, err := req.series()
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	var values interface{}
	switch indicator {
	case indicators.SMA:
		values, err = indicators.SimpleMovingAverage(series, orDefault(req.Period, DefaultPeriod))
	case indicators.MACD:
		values, err = indicators.MovingAverageConvergence(series, orDefault(req.Fast, DefaultFast), orDefault(req.Slow, DefaultSlow))
	case indicators.Bollinger:
		values, err = indicators.BollingerBands(series, orDefault(req.Period, DefaultPeriod))
	case indicators.RSI:
		values, err = indicators.RelativeStrength(series, orDefault(req.Period, DefaultRSIPeriod))
	case indicators.ROC:
		values, err = indicators.RateOfChange(series, orDefault(req.Period, DefaultPeriod))
	}
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	h.codec.Respond(w, r, http.StatusOK, map[string]interface{}{
		"indicator": indicator.String(),
		"asset":     asset,
		"values":    values,
	})
}
