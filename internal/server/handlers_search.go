package server

import (
	"net/http"
	"time"

	db "github.com/hollowmoss/keepsake/internal/db/gorm"
)

// handleSearchPosts lists posts matching a tag query. A non-empty query is
// logged so the search term itself accrues scores; logging failures never
// fail the search.
func (s *Service) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	order, limit, offset := listParams(r)

	if normalized := db.NormalizeQuery(query); normalized != "" {
		search, err := s.searches.LogSearch(r.Context(), normalized, time.Now().UTC())
		if err != nil {
			s.logger.Warn().Err(err).Str("query", normalized).Msg("Search log failed")
		} else {
			s.maybeRecompute(search)
		}
	}

	posts, err := s.posts.ListPosts(r.Context(), db.ListParams{
		Query:  query,
		Order:  order,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

func (s *Service) handleSearchVaults(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	order, limit, offset := listParams(r)

	vaults, err := s.vaults.ListVaults(r.Context(), db.ListParams{
		Query:  query,
		Order:  order,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vaults": vaults})
}

// handleSearchSuggestions returns popular stored queries matching a prefix.
func (s *Service) handleSearchSuggestions(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("query")
	suggestions, err := s.searches.Suggestions(r.Context(), prefix, queryInt(r, "limit", 8))
	if err != nil {
		writeError(w, err)
		return
	}

	queries := make([]string, len(suggestions))
	for i, sg := range suggestions {
		queries[i] = sg.Query
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": queries})
}
