package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/logger"
)

// ContentTypeMsgpack selects msgpack for request and response bodies.
const ContentTypeMsgpack = "application/msgpack"

// MaxBodySize caps request bodies.
const MaxBodySize = 10 << 20

// Metadata accompanies every response.
type Metadata struct {
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id"`
}

// Envelope is the success response shape.
type Envelope struct {
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// ErrorEnvelope is the failure response shape.
type ErrorEnvelope struct {
	Error    ErrorBody `json:"error"`
	Metadata Metadata  `json:"metadata"`
}

// Codec decodes and validates requests and writes enveloped responses.
type Codec struct {
	validate *validator.Validate
	log      zerolog.Logger
}

// NewCodec creates a codec.
func NewCodec(log zerolog.Logger) *Codec {
	return &Codec{
		validate: newValidator(),
		log:      logger.Component(log, "api_codec"),
	}
}

// Decode reads the body into dst (msgpack when the Content-Type says so,
// JSON otherwise) and validates its struct tags.
func (c *Codec) Decode(r *http.Request, dst interface{}) error {
	body := io.LimitReader(r.Body, MaxBodySize)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), ContentTypeMsgpack) {
		dec := msgpack.NewDecoder(body)
		dec.SetCustomStructTag("json")
		err = dec.Decode(dst)
	} else {
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		err = dec.Decode(dst)
	}
	if err != nil {
		return fmt.Errorf("%w: malformed body: %v", ErrBadRequest, err)
	}

	if err := c.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
			for _, fe := range verrs {
				out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
			return out
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// Respond writes data inside the success envelope.
func (c *Codec) Respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	c.write(w, r, status, Envelope{Data: data, Metadata: newMetadata()})
}

// Error maps err to a status code and writes the failure envelope.
func (c *Codec) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Classify(err)
	body := ErrorBody{Code: code, Message: err.Error()}

	var verr *ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		c.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		c.log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}

	c.write(w, r, status, ErrorEnvelope{Error: body, Metadata: newMetadata()})
}

func (c *Codec) write(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if strings.Contains(r.Header.Get("Accept"), ContentTypeMsgpack) {
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(v); err != nil {
			c.log.Error().Err(err).Msg("Failed to encode msgpack response")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func newMetadata() Metadata {
	return Metadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunID:     uuid.NewString(),
	}
}

// ErrBadRequest marks bodies that could not be decoded.
var ErrBadRequest = errors.New("bad request")

// Classify maps an error to an HTTP status and a stable error code.
func Classify(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrInvalidConfidenceLevel):
		return http.StatusBadRequest, "invalid_confidence_level"
	case errors.Is(err, domain.ErrInvalidMethod):
		return http.StatusBadRequest, "invalid_method"
	case errors.Is(err, domain.ErrInvalidDegreesOfFreedom):
		return http.StatusBadRequest, "invalid_degrees_of_freedom"
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest, "invalid_parameter"
	case errors.Is(err, domain.ErrInvalidPriceMatrix):
		return http.StatusBadRequest, "invalid_price_matrix"
	case errors.Is(err, domain.ErrWeightDimensionMismatch):
		return http.StatusBadRequest, "weight_dimension_mismatch"
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient_data"
	case errors.Is(err, domain.ErrEmptyReturnSeries):
		return http.StatusUnprocessableEntity, "empty_return_series"
	case errors.Is(err, domain.ErrDegenerateVariance):
		return http.StatusUnprocessableEntity, "degenerate_variance"
	case errors.Is(err, domain.ErrDegeneratePortfolio):
		return http.StatusUnprocessableEntity, "degenerate_portfolio"
	case errors.Is(err, domain.ErrModelDidNotConverge):
		return http.StatusUnprocessableEntity, "model_did_not_converge"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
