package server

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	db "github.com/hollowmoss/keepsake/internal/db/gorm"
	"github.com/hollowmoss/keepsake/pkg/models"
)

// vaultCreate is the request body for creating a vault.
type vaultCreate struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Privacy     models.PrivacyType `json:"privacy"`
}

func (s *Service) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	var body vaultCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	vault := &models.Vault{
		UserID:      uid,
		Title:       body.Title,
		Description: body.Description,
		Privacy:     body.Privacy,
	}
	if err := s.vaults.CreateVault(r.Context(), vault, time.Now().UTC()); err != nil {
		s.logger.Error().Err(err).Msg("Create vault failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vault)
}

func (s *Service) handleGetVault(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "vaultID")
	if err != nil {
		http.Error(w, "invalid vault id", http.StatusBadRequest)
		return
	}

	vault, err := s.vaults.GetVault(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	reaction := models.ReactionNone
	if uid, ok := userID(r); ok {
		if got, err := s.reactions.GetReaction(r.Context(), uid, vault.Ref()); err == nil {
			reaction = got
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vault":    vault,
		"reaction": reaction,
	})
}

func (s *Service) handleUpdateVault(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "vaultID")
	if err != nil {
		http.Error(w, "invalid vault id", http.StatusBadRequest)
		return
	}

	var body struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		Privacy     *models.PrivacyType `json:"privacy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	update := db.VaultUpdate{Title: body.Title, Description: body.Description, Privacy: body.Privacy}
	if err := s.vaults.UpdateVault(r.Context(), id, update); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDeleteVault(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "vaultID")
	if err != nil {
		http.Error(w, "invalid vault id", http.StatusBadRequest)
		return
	}
	if err := s.vaults.DeleteVault(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVaultLog explicitly recomputes a vault's scores. Unlike the
// opportunistic triggers, errors here propagate: the caller asked for the
// recompute and deserves to know it failed.
func (s *Service) handleVaultLog(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "vaultID")
	if err != nil {
		http.Error(w, "invalid vault id", http.StatusBadRequest)
		return
	}

	vault, err := s.vaults.GetVault(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := s.recomputer.MaybeRecompute(r.Context(), vault, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Int64("vault", id).Msg("Vault recompute failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"outcome": outcome.String()})
}

func (s *Service) handleVaultPosts(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "vaultID")
	if err != nil {
		http.Error(w, "invalid vault id", http.StatusBadRequest)
		return
	}

	_, limit, offset := listParams(r)
	posts, err := s.vaults.VaultPosts(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

func (s *Service) handleAddVaultPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "vaultID")
	if err != nil {
		http.Error(w, "invalid vault id", http.StatusBadRequest)
		return
	}

	var body struct {
		PostID int64 `json:"post_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PostID <= 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.vaults.AddPost(r.Context(), id, body.PostID, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}

	// A save is engagement on the post; give its scores a chance to move.
	if post, err := s.posts.GetPost(r.Context(), body.PostID); err == nil {
		s.maybeRecompute(post)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleRemoveVaultPost(w http.ResponseWriter, r *http.Request) {
	vaultID, err := parseIntParam(r, "vaultID")
	if err != nil {
		http.Error(w, "invalid vault id", http.StatusBadRequest)
		return
	}
	postID, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := s.vaults.RemovePost(r.Context(), vaultID, postID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
