package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the document written for every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes payload as the bare response document.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}
