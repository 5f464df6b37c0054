// Package api holds the request and response plumbing shared by the HTTP
// handlers: body decoding (JSON or msgpack), struct validation, the response
// envelope and the mapping of analysis errors to status codes.
package api

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/returns"
)

// DateLayout is the calendar date format accepted in requests. RFC 3339
// timestamps are accepted as well.
const DateLayout = "2006-01-02"

// PriceRequest is the price matrix every analysis endpoint receives.
// Prices are indexed [asset][date].
type PriceRequest struct {
	Dates  []string    `json:"dates" validate:"required,min=1,dive,date"`
	Assets []string    `json:"assets" validate:"required,min=1,unique,dive,required"`
	Prices [][]float64 `json:"prices" validate:"required,min=1,dive,required"`
}

// Matrix parses the dates and builds a validated PriceMatrix.
func (p PriceRequest) Matrix() (domain.PriceMatrix, error) {
	dates := make([]time.Time, len(p.Dates))
	for i, s := range p.Dates {
		d, err := ParseDate(s)
		if err != nil {
			return domain.PriceMatrix{}, fmt.Errorf("%w: dates[%d]: %v", domain.ErrInvalidPriceMatrix, i, err)
		}
		dates[i] = d
	}
	pm := domain.PriceMatrix{
		Dates:  dates,
		Assets: p.Assets,
		Prices: p.Prices,
	}
	if err := pm.Validate(); err != nil {
		return domain.PriceMatrix{}, err
	}
	return pm, nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// newValidator builds a validator that reports JSON field names and knows
// the custom "date" tag.
func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every failed rule of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s failed %s", f.Field, f.Rule)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BuildReturns converts the request prices into a return matrix using the
// named return method ("percent" when empty).
func BuildReturns(b *returns.Builder, p PriceRequest, method string) (domain.ReturnMatrix, error) {
	if method == "" {
		method = returns.Percent.String()
	}
	m, err := returns.ParseMethod(method)
	if err != nil {
		return domain.ReturnMatrix{}, err
	}
	pm, err := p.Matrix()
	if err != nil {
		return domain.ReturnMatrix{}, err
	}
	return b.Build(pm, m)
}
