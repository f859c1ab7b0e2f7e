package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("API Error: response encode failed: %v", err)
	}
}

// respondWithError logs the error and sends a JSON error response.
// Use this to avoid exposing internal errors while still logging them.
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Printf("API Error [%d]: %s - %v", code, message, err)
	} else {
		log.Printf("API Error [%d]: %s", code, message)
	}
	writeJSON(w, code, map[string]string{"error": message})
}

// decodeBody decodes a JSON request body into dest, responding 400 on
// failure. Returns false when the caller should stop.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
