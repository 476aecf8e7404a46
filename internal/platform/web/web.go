// Package web holds the JSON response helpers shared by all handlers.
package web

import (
	"encoding/json"
	"net/http"

	dErrors "trustbridge/pkg/domain-errors"
)

// Respond writes payload as JSON with the given status. A nil payload writes
// only the status.
func Respond(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error maps a domain error onto its HTTP status and writes the standard
// error body. Unrecognized errors become 500s with a generic message so
// internals never leak to clients.
func Error(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	body := errorBody{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	}
	if status == http.StatusInternalServerError {
		body.Error = string(dErrors.CodeInternal)
		body.Message = "internal error"
	}
	Respond(w, status, body)
}
