package handlers

import (
	"encoding/json"
	"net/http"

	"vrchat-albums/internal/logging"
)

// writeJSON encodes v as JSON. Encoding errors can only be logged once the
// header has been written.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}
