package server

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	db "github.com/hollowmoss/keepsake/internal/db/gorm"
	"github.com/hollowmoss/keepsake/pkg/models"
)

// postCreate is the request body for creating one post.
type postCreate struct {
	Title      string            `json:"title"`
	PreviewURL string            `json:"preview_url"`
	SampleURL  string            `json:"sample_url"`
	FileURL    string            `json:"file_url"`
	Rating     models.RatingType `json:"rating"`
	Type       models.FileType   `json:"type"`
	Tags       string            `json:"tags"`
	Source     string            `json:"source"`
	Embedding  []float32         `json:"embedding"`
}

// handleCreatePosts inserts a batch of posts. Embeddings arrive opaque from
// the ingest pipeline; an absent embedding just excludes the post from
// similarity search.
func (s *Service) handleCreatePosts(w http.ResponseWriter, r *http.Request) {
	var body []postCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty batch", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	posts := make([]*models.Post, len(body))
	for i, in := range body {
		posts[i] = &models.Post{
			Title:      in.Title,
			PreviewURL: in.PreviewURL,
			SampleURL:  in.SampleURL,
			FileURL:    in.FileURL,
			Rating:     in.Rating,
			Type:       in.Type,
			Tags:       in.Tags,
			Source:     in.Source,
			Embedding:  in.Embedding,
		}
		if posts[i].Rating == "" {
			posts[i].Rating = models.RatingExplicit
		}
		if posts[i].Type == "" {
			posts[i].Type = models.FileImage
		}
	}

	if err := s.posts.CreatePosts(r.Context(), posts, now); err != nil {
		s.logger.Error().Err(err).Int("count", len(posts)).Msg("Create posts failed")
		writeError(w, err)
		return
	}

	for _, post := range posts {
		s.mirrorUpsertPost(post)
	}

	ids := make([]int64, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids})
}

// handleGetPost returns one post, with the caller's reaction when a user
// header is present.
func (s *Service) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, err := s.posts.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	reaction := models.ReactionNone
	if uid, ok := userID(r); ok {
		if got, err := s.reactions.GetReaction(r.Context(), uid, post.Ref()); err == nil {
			reaction = got
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"post":     post,
		"reaction": reaction,
	})
}

// handleViewPost records a view: bumps the view counter, opportunistically
// recomputes scores, and mirrors a search click when the view came from a
// search results page. Recompute failures never fail the view.
func (s *Service) handleViewPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, err := s.posts.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.posts.IncrementViews(r.Context(), id); err != nil {
		s.logger.Warn().Err(err).Int64("post", id).Msg("View increment failed")
	}

	s.maybeRecompute(post)

	if query := db.NormalizeQuery(r.Header.Get("X-Search-Query")); query != "" {
		s.mirrorSearchClick(query, id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRecommendPosts returns posts similar to the given one.
func (s *Service) handleRecommendPosts(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, err := s.posts.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(post.Embedding) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"posts": []*models.Post{}})
		return
	}

	similar, err := s.ranker.SimilarPosts(r.Context(), post)
	if err != nil {
		s.logger.Error().Err(err).Int64("post", id).Msg("Similar posts failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": similar})
}

// handlePostVaults returns the best public vaults containing the post.
func (s *Service) handlePostVaults(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	vaults, err := s.ranker.VaultsForPost(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vaults": vaults})
}

// handlePostMetrics returns the post's recent metric snapshots.
func (s *Service) handlePostMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "postID")
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	history, err := s.metrics.History(r.Context(), models.PostRef(id), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": history})
}
