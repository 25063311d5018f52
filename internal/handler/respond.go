package handler

import (
	"encoding/json"
	"net/http"
)

// Opaque numeric codes for internal failures. Clients never see internal
// error detail, only these.
const (
	codeTokenCreation = "1300"
	codeInternal      = "1500"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
