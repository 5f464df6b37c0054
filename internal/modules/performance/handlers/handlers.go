// Package handlers provides HTTP handlers for performance reporting.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/modules/performance"
)

// Handler handles performance HTTP requests
type Handler struct {
	reporter      *performance.Reporter
	codec         *api.Codec
	benchmarkRate float64
	log           zerolog.Logger
}

// NewHandler creates a new performance handler. benchmarkRate is the annual
// rate used when a request does not name one.
func NewHandler(reporter *performance.Reporter, codec *api.Codec, benchmarkRate float64, log zerolog.Logger) *Handler {
	return &Handler{
		reporter:      reporter,
		codec:         codec,
		benchmarkRate: benchmarkRate,
		log:           log.With().Str("handler", "performance").Logger(),
	}
}

type summaryRequest struct {
	api.PriceRequest
	BenchmarkRate  *float64 `json:"benchmark_rate"`
	Convention     string   `json:"convention"`
	BenchmarkAsset string   `json:"benchmark_asset"`
}

type drawdownRequest struct {
	api.PriceRequest
	Convention string `json:"convention"`
}

func parseConvention(tag string) (performance.DrawdownConvention, error) {
	if tag == "" {
		return performance.Dollar, nil
	}
	return performance.ParseConvention(tag)
}

// HandlePostSummary handles POST /api/performance/summary
func (h *Handler) HandlePostSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := h.codec.Decode(r, &req); err != nil {
		h.codec.Error(w, r, err)
		return
	}

	convention, err := parseConvention(req.Convention)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}
	opts := performance.SummaryOptions{
		BenchmarkRate:  h.benchmarkRate,
		Convention:     convention,
		BenchmarkAsset: req.BenchmarkAsset,
	}
	if req.BenchmarkRate != nil {
		opts.BenchmarkRate = *req.BenchmarkRate
	}

	pm, err := req.Matrix()
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	summaries, err := h.reporter.Summarize(pm, opts)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	h.codec.Respond(w, r, http.StatusOK, map[string]interface{}{
		"summaries": summaries,
	})
}

// HandlePostDrawdown handles POST /api/performance/drawdown
func (h *Handler) HandlePostDrawdown(w http.ResponseWriter, r *http.Request) {
	var req drawdownRequest
	if err := h.codec.Decode(r, &req); err != nil {
		h.codec.Error(w, r, err)
		return
	}

	convention, err := parseConvention(req.Convention)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	pm, err := req.Matrix()
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	drawdowns, err := performance.Drawdowns(pm, convention)
	if err != nil {
		h.codec.Error(w, r, err)
		return
	}

	h.codec.Respond(w, r, http.StatusOK, map[string]interface{}{
		"drawdowns": drawdowns,
	})
}
