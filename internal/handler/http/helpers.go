package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/order-portal/internal/api"
	"github.com/vasiliy-maslov/order-portal/internal/invoice"
	"github.com/vasiliy-maslov/order-portal/internal/order"
	"github.com/vasiliy-maslov/order-portal/internal/portal"
)

const msgInternal = "An error occurred"

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondWithError sends {"error": message}.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondWithServiceError maps err to a status code and a message that is
// safe to show to the user.
func respondWithServiceError(w http.ResponseWriter, err error) {
	respondWithError(w, mapErrorToStatusCode(err), clientMessage(err))
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, portal.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, portal.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, portal.ErrCatalogNotLoaded):
		return http.StatusConflict
	case errors.Is(err, portal.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, order.ErrEmptyOrder), errors.Is(err, order.ErrUnknownProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, invoice.ErrUnsupportedFormat):
		return http.StatusBadRequest
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindStatus, api.KindStatusText:
			if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
				return apiErr.StatusCode
			}
			return http.StatusBadGateway
		case api.KindRejected:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadGateway
		}
	}

	return http.StatusInternalServerError
}

func clientMessage(err error) string {
	for _, sentinel := range []error{
		portal.ErrUnauthenticated,
		portal.ErrOrderNotFound,
		portal.ErrCatalogNotLoaded,
		portal.ErrConfirmationRequired,
		order.ErrEmptyOrder,
		order.ErrUnknownProduct,
		invoice.ErrUnsupportedFormat,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return msgInternal
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			details[field] = "is required"
		case "email":
			details[field] = "must be a valid email address"
		case "min":
			details[field] = "must be at least " + fe.Param() + " characters long"
		case "gte":
			details[field] = "must be greater than or equal to " + fe.Param()
		default:
			details[field] = "is invalid (" + fe.Tag() + ")"
		}
	}
	return details
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure
// the response has already been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}
