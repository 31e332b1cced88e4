package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gymcore-backend-go/internal/services"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message string            `json:"message"`
	Details any               `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError renders err. Anything that is not a ServiceError is
// logged and reported as a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var serr services.ServiceError
	if errors.As(err, &serr) {
		WriteJSON(w, serr.Status, ErrorResponse{Message: serr.Message, Details: serr.Details, Fields: serr.Fields})
		return
	}
	s.Log.Error("request_failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	return true
}

// created picks 201 for a new record and 200 for an existing one.
func created(ok bool) int {
	if ok {
		return http.StatusCreated
	}
	return http.StatusOK
}
