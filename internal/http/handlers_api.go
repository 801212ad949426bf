package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"revdash/internal/log"
)

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSnapshotResponse(s.dash.Snapshot(), s.format))
}

// handleAPISelect toggles the category named in a JSON body.
func (s *Server) handleAPISelect(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.metrics.validationErrs.Inc()
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	req.Category = sanitizeInput(req.Category)
	if err := validate.Struct(req); err != nil {
		s.metrics.validationErrs.Inc()
		writeJSONError(w, http.StatusUnprocessableEntity, "category is required")
		return
	}
	if !s.dash.Categories().Contains(req.Category) {
		s.metrics.validationErrs.Inc()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unknown category selected", log.FieldCategory, req.Category)
		writeJSONError(w, http.StatusUnprocessableEntity, "unknown category: "+req.Category)
		return
	}

	snap := s.dash.Activate(r.Context(), req.Category)
	writeJSON(w, http.StatusOK, newSnapshotResponse(snap, s.format))
}

func (s *Server) handleAPIClear(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Clear(r.Context())
	writeJSON(w, http.StatusOK, newSnapshotResponse(snap, s.format))
}
