// Package shared centralizes JSON response writing so every handler produces
// the same envelopes: payloads carry a message field, errors carry a code and
// a caller-safe message.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "keepsafe/pkg/domain-errors"
)

// WriteJSON writes a JSON payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteMessage writes {"message": ...} with extra payload keys merged in.
func WriteMessage(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["message"] = message
	WriteJSON(w, status, body)
}

// WriteError translates a domain error into its HTTP status and envelope.
// Non-coded errors surface as generic 500s; their details stay in the logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": dErrors.MessageOf(err),
	})
}
