package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports whether the dashboard can serve pages.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	data := s.dash.Dataset()
	if data.Categories().Len() == 0 || data.Len() == 0 {
		checks["dataset"] = "failed: dataset is empty"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = map[string]interface{}{
			"categories": data.Categories().Len(),
			"periods":    data.Len(),
			"status":     "ok",
		}
	}

	checks["chart_cache"] = map[string]interface{}{
		"entries": s.chartCache.Cache().Size(),
		"status":  "ok",
	}

	if s.amqpStats != nil {
		st := s.amqpStats()
		checks["amqp"] = map[string]interface{}{
			"pending": st.Pending,
			"dropped": st.Dropped,
			"status":  "ok",
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}
