package presenter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jbattja/fugata-sub001/internal/core"
	"github.com/jbattja/fugata-sub001/internal/service"
)

type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`
}

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	correlationID, _ := r.Context().Value("correlation_id").(string)
	resp := ErrorResponse{
		Error:         msg,
		CorrelationID: correlationID,
	}
	JSON(w, r, resp, status)
}

func Err(w http.ResponseWriter, r *http.Request, err error, short string) {
	Error(w, r, short+": "+err.Error(), StatusFor(err))
}

// StatusFor maps an error to its HTTP status: an explicit service.HTTPError
// wins, then the well-known sentinel causes, then a generic 400.
func StatusFor(err error) int {
	var httpError service.HTTPError
	if errors.As(err, &httpError) {
		return httpError.StatusCode
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrExpired),
		errors.Is(err, core.ErrAudienceMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrMissingScope),
		errors.Is(err, core.ErrMerchantMismatch),
		errors.Is(err, core.ErrScopeViolation):
		return http.StatusForbidden
	case errors.Is(err, core.ErrActionConsumed):
		return http.StatusConflict
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
