package httputil

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a simple JSON error body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Problem is a structured routing error: a stable machine-readable type
// token plus a human title and optional detail. CorrelationID echoes the
// inbound X-Request-Id header verbatim when present.
type Problem struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        string `json:"detail,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WriteProblem writes p using its own status code.
func WriteProblem(w http.ResponseWriter, p Problem) {
	JSON(w, p.Status, p)
}
