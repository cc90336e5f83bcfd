package server

import (
	"net/http"
)

// handleHealth reports liveness. A failing database ping makes the service
// unhealthy; the graph mirror is best-effort and does not gate health.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	stats := s.store.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"database": map[string]interface{}{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
	})
}
