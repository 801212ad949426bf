package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"revdash/internal/core"
	"revdash/internal/render"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// chartCacheKey identifies a rendered chart. The empty selection and a
// category literally named "All" must not collide.
func chartCacheKey(kind render.ChartKind, sel core.Selection) string {
	if name, ok := sel.Category(); ok {
		return string(kind) + "|=" + name
	}
	return string(kind) + "|*"
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
