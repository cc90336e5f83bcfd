package server

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// handleReact builds a reaction handler for one target type. All three
// reaction routes share the same shape: an authenticated user submits a
// desired reaction state and gets back what it replaced.
func (s *Service) handleReact(target models.TargetType, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(r)
		if !ok {
			http.Error(w, "missing user", http.StatusUnauthorized)
			return
		}

		id, err := parseIntParam(r, param)
		if err != nil {
			http.Error(w, "invalid target id", http.StatusBadRequest)
			return
		}

		var body struct {
			Reaction models.ReactionType `json:"reaction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		ref := models.TargetRef{Type: target, ID: formatID(id)}
		prev, err := s.reactions.React(r.Context(), uid, ref, body.Reaction, time.Now().UTC())
		if err != nil {
			writeError(w, err)
			return
		}

		s.mirrorReaction(uid, ref, body.Reaction)

		// Reactions move the activity score; refresh the scored entities.
		switch target {
		case models.TargetPost:
			if post, err := s.posts.GetPost(r.Context(), id); err == nil {
				s.maybeRecompute(post)
			}
		case models.TargetVault:
			if vault, err := s.vaults.GetVault(r.Context(), id); err == nil {
				s.maybeRecompute(vault)
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"previous": prev,
			"reaction": body.Reaction,
		})
	}
}
