package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

const maxErrorMessageLen = 200

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// respondJSON wraps data in the standard success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// respondJSONError sends the standard error envelope. The message is
// trimmed so internal error chains never reach the client in full.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeEnvelope(w, status, envelope{
		Success: false,
		Error:   errorType,
		Message: sanitizeErrorMessage(message),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLen {
		return message[:maxErrorMessageLen] + "..."
	}
	return message
}
