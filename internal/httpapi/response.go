package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ironsheep/imagekit/internal/imaging"
)

// ErrorResponse is the error envelope for every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Code: status, Message: message})
}

// writeImageError maps an imaging error kind onto an HTTP status.
func writeImageError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeJSON(w, status, ErrorResponse{
		Code:    status,
		Message: err.Error(),
		Step:    imaging.FailedStep(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, imaging.ErrInvalidInput), errors.Is(err, imaging.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, imaging.ErrOperationFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
