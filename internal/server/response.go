package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/worker"
)

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

// StatusForError maps an analysis error to an HTTP status code
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, worker.ErrRateLimited) {
		return http.StatusTooManyRequests
	}

	switch model.KindOf(err) {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindTextProcessing:
		return http.StatusUnprocessableEntity
	case model.KindAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the response for err
func HandleError(w http.ResponseWriter, err error) {
	kind := string(model.KindOf(err))
	if errors.Is(err, worker.ErrRateLimited) {
		kind = "RATE_LIMITED"
	}
	Error(w, StatusForError(err), kind, err.Error())
}
