package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left to do but note it.
		return
	}
}

// writeError maps store errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidReaction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// parseIntParam extracts an integer URL parameter.
func parseIntParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// formatID renders a numeric target id the way refs carry them.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// userID reads the calling user from the X-User-ID header. Authentication
// is a collaborator concern; the API only needs an identity to attribute
// reactions and comments to.
func userID(r *http.Request) (int64, bool) {
	v := r.Header.Get("X-User-ID")
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// listParams reads the shared listing query parameters.
func listParams(r *http.Request) (models.Order, int, int) {
	order := models.Order(r.URL.Query().Get("order"))
	if !order.Valid() {
		order = models.OrderTrending
	}
	return order, queryInt(r, "limit", 32), queryInt(r, "offset", 0)
}
