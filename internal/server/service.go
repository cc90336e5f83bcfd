// Package server provides the HTTP API service for keepsake.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hollowmoss/keepsake/internal/config"
	db "github.com/hollowmoss/keepsake/internal/db/gorm"
	"github.com/hollowmoss/keepsake/internal/recommend"
	"github.com/hollowmoss/keepsake/internal/scoring"
	"github.com/hollowmoss/keepsake/pkg/models"
)

// GraphMirror receives best-effort engagement mirroring. Implemented by
// internal/graph; nil disables mirroring.
type GraphMirror interface {
	UpsertPost(post *models.Post) error
	RecordReaction(userID int64, ref models.TargetRef, reaction models.ReactionType) error
	RecordSearchClick(query string, postID int64) error
}

// Service is the HTTP API service.
type Service struct {
	cfg *config.Config

	store     *db.Store
	posts     *db.PostStore
	vaults    *db.VaultStore
	comments  *db.CommentStore
	searches  *db.SearchStore
	reactions *db.ReactionStore
	metrics   *db.MetricStore

	recomputer *scoring.Recomputer
	ranker     *recommend.Ranker
	mirror     GraphMirror

	router *chi.Mux
	server *http.Server
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// candidateSource adapts the stores to the ranker's candidate queries.
type candidateSource struct {
	posts  *db.PostStore
	vaults *db.VaultStore
}

func (c *candidateSource) NearestPosts(ctx context.Context, embedding []float32, excludeID int64, limit int) ([]*models.Post, error) {
	return c.posts.NearestPosts(ctx, embedding, excludeID, limit)
}

func (c *candidateSource) VaultsForPost(ctx context.Context, postID int64, limit int) ([]*models.Vault, error) {
	return c.vaults.VaultsForPost(ctx, postID, limit)
}

// NewService wires the service on an open store. mirror may be nil.
func NewService(cfg *config.Config, store *db.Store, mirror GraphMirror) *Service {
	posts := db.NewPostStore(store)
	vaults := db.NewVaultStore(store)
	metrics := db.NewMetricStore(store)

	s := &Service{
		cfg:        cfg,
		store:      store,
		posts:      posts,
		vaults:     vaults,
		comments:   db.NewCommentStore(store),
		searches:   db.NewSearchStore(store),
		reactions:  db.NewReactionStore(store),
		metrics:    metrics,
		recomputer: scoring.NewRecomputer(metrics, db.NewScoreStore(store), cfg.Scoring),
		ranker:     recommend.NewRanker(&candidateSource{posts: posts, vaults: vaults}),
		mirror:     mirror,
		router:     chi.NewRouter(),
		logger:     log.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Service) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(MaxBodySize(8 << 20))
	s.router.Use(RequireJSONContentType)
}

func (s *Service) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/posts", func(r chi.Router) {
			r.Post("/", s.handleCreatePosts)
			r.Route("/{postID}", func(r chi.Router) {
				r.Get("/", s.handleGetPost)
				r.Put("/", s.handleViewPost)
				r.Get("/recommend", s.handleRecommendPosts)
				r.Get("/vaults", s.handlePostVaults)
				r.Get("/metrics", s.handlePostMetrics)
				r.Post("/reactions", s.handleReact(models.TargetPost, "postID"))
				r.Post("/comments", s.handleCreateComment)
				r.Get("/comments", s.handleListComments)
			})
		})

		r.Route("/vaults", func(r chi.Router) {
			r.Post("/", s.handleCreateVault)
			r.Route("/{vaultID}", func(r chi.Router) {
				r.Get("/", s.handleGetVault)
				r.Put("/", s.handleUpdateVault)
				r.Delete("/", s.handleDeleteVault)
				r.Post("/log", s.handleVaultLog)
				r.Post("/reactions", s.handleReact(models.TargetVault, "vaultID"))
				r.Get("/posts", s.handleVaultPosts)
				r.Post("/posts", s.handleAddVaultPost)
				r.Delete("/posts/{postID}", s.handleRemoveVaultPost)
			})
		})

		r.Post("/comments/{commentID}/reactions", s.handleReact(models.TargetComment, "commentID"))

		r.Route("/search", func(r chi.Router) {
			r.Get("/posts", s.handleSearchPosts)
			r.Get("/vaults", s.handleSearchVaults)
			r.Get("/suggestions", s.handleSearchSuggestions)
		})
	})
}

// Router exposes the handler tree; tests mount it on httptest servers.
func (s *Service) Router() http.Handler {
	return s.router
}

// Start begins serving HTTP. It blocks until the listener fails or the
// service is shut down.
func (s *Service) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and waits for background work to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timed out waiting for background tasks")
	}
	return err
}

// background runs fn on its own goroutine with a bounded lifetime, counted
// so Shutdown can wait for it.
func (s *Service) background(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn().Err(err).Str("task", name).Msg("Background task failed")
		}
	}()
}

// maybeRecompute opportunistically recomputes an entity's scores, logging
// instead of failing the request path that triggered it.
func (s *Service) maybeRecompute(entity models.Scorable) {
	s.background("recompute "+entity.Ref().String(), func(ctx context.Context) error {
		_, err := s.recomputer.MaybeRecompute(ctx, entity, time.Now().UTC())
		return err
	})
}

// The mirror helpers are all best-effort: a graph outage is logged by
// background and never surfaces to the request.

func (s *Service) mirrorUpsertPost(post *models.Post) {
	if s.mirror == nil {
		return
	}
	s.background("mirror post", func(context.Context) error {
		return s.mirror.UpsertPost(post)
	})
}

func (s *Service) mirrorReaction(uid int64, ref models.TargetRef, reaction models.ReactionType) {
	if s.mirror == nil {
		return
	}
	s.background("mirror reaction", func(context.Context) error {
		return s.mirror.RecordReaction(uid, ref, reaction)
	})
}

func (s *Service) mirrorSearchClick(query string, postID int64) {
	if s.mirror == nil {
		return
	}
	s.background("mirror search click", func(context.Context) error {
		return s.mirror.RecordSearchClick(query, postID)
	})
}
