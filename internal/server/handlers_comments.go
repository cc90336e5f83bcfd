package server

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/hollowmoss/keepsake/pkg/models"
)

func (s *Service) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	postID, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  uid,
		Content: body.Content,
	}
	if err := s.comments.CreateComment(r.Context(), comment, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}

	// The comment count feeds the post's activity score.
	if post, err := s.posts.GetPost(r.Context(), postID); err == nil {
		s.maybeRecompute(post)
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (s *Service) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	_, limit, offset := listParams(r)
	comments, err := s.comments.ListComments(r.Context(), postID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}
