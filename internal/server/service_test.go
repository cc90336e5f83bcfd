package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"github.com/hollowmoss/keepsake/internal/config"
	db "github.com/hollowmoss/keepsake/internal/db/gorm"
	"github.com/hollowmoss/keepsake/pkg/models"
)

// recordingMirror captures mirror calls for assertions.
type recordingMirror struct {
	mu        sync.Mutex
	posts     []int64
	reactions []models.TargetRef
	clicks    []string
}

func (m *recordingMirror) UpsertPost(post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, post.ID)
	return nil
}

func (m *recordingMirror) RecordReaction(userID int64, ref models.TargetRef, reaction models.ReactionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, ref)
	return nil
}

func (m *recordingMirror) RecordSearchClick(query string, postID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = append(m.clicks, query)
	return nil
}

type ServiceTestSuite struct {
	suite.Suite
	store   *db.Store
	service *Service
	server  *httptest.Server
	mirror  *recordingMirror
}

func (s *ServiceTestSuite) SetupTest() {
	dsn := filepath.Join(s.T().TempDir(), "test.db")
	store, err := db.NewStoreWithDialector(sqlite.Open(dsn), db.Config{
		MaxConns: 4,
		LogLevel: logger.Silent,
	})
	s.Require().NoError(err)
	s.store = store

	cfg := config.Default()
	s.mirror = &recordingMirror{}
	s.service = NewService(cfg, store, s.mirror)
	s.server = httptest.NewServer(s.service.Router())
}

func (s *ServiceTestSuite) TearDownTest() {
	s.server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.service.Shutdown(ctx))
	s.Require().NoError(s.store.Close())
}

// drain waits for background recomputes and mirror calls to finish.
func (s *ServiceTestSuite) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.service.Shutdown(ctx))
}

func (s *ServiceTestSuite) do(method, path string, body interface{}, headers map[string]string) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *ServiceTestSuite) decode(resp *http.Response, into interface{}) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

func (s *ServiceTestSuite) createPost(tags string) int64 {
	resp := s.do(http.MethodPost, "/api/posts", []map[string]interface{}{
		{"title": "test post", "tags": tags, "file_url": "https://files.test/a.png"},
	}, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var out struct {
		IDs []int64 `json:"ids"`
	}
	s.decode(resp, &out)
	s.Require().Len(out.IDs, 1)
	return out.IDs[0]
}

func (s *ServiceTestSuite) createVault(userID int64, title string) int64 {
	resp := s.do(http.MethodPost, "/api/vaults", map[string]interface{}{
		"title":   title,
		"privacy": "public",
	}, map[string]string{"X-User-ID": fmt.Sprint(userID)})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var vault models.Vault
	s.decode(resp, &vault)
	return vault.ID
}

// backdateVault pushes a vault's last_updated outside the scoring cooldown.
func (s *ServiceTestSuite) backdateVault(id int64) {
	err := s.store.DB.Exec("UPDATE vault SET last_updated = ? WHERE id = ?",
		time.Now().UTC().Add(-48*time.Hour), id).Error
	s.Require().NoError(err)
}

func (s *ServiceTestSuite) TestHealth() {
	resp := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	s.decode(resp, &out)
	s.Equal("healthy", out["status"])
}

func (s *ServiceTestSuite) TestCreateAndGetPost() {
	id := s.createPost("forest cat")

	resp := s.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", id), nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Post     models.Post         `json:"post"`
		Reaction models.ReactionType `json:"reaction"`
	}
	s.decode(resp, &out)
	s.Equal(id, out.Post.ID)
	s.Equal("forest cat", out.Post.Tags)
	s.Equal(models.ReactionNone, out.Reaction)

	s.drain()
	s.Contains(s.mirror.posts, id)
}

func (s *ServiceTestSuite) TestGetMissingPostIsNotFound() {
	resp := s.do(http.MethodGet, "/api/posts/9999", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *ServiceTestSuite) TestViewPostBumpsCounter() {
	id := s.createPost("sunset")

	resp := s.do(http.MethodPut, fmt.Sprintf("/api/posts/%d", id), nil, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	s.drain()

	posts := db.NewPostStore(s.store)
	post, err := posts.GetPost(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(int64(1), post.Views)
}

func (s *ServiceTestSuite) TestReactToPost() {
	id := s.createPost("dunes")

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/reactions", id),
		map[string]string{"reaction": "like"},
		map[string]string{"X-User-ID": "7"})
	s.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Previous models.ReactionType `json:"previous"`
		Reaction models.ReactionType `json:"reaction"`
	}
	s.decode(resp, &out)
	s.Equal(models.ReactionNone, out.Previous)
	s.Equal(models.ReactionLike, out.Reaction)
	s.drain()

	posts := db.NewPostStore(s.store)
	post, err := posts.GetPost(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(int64(1), post.Likes)
	s.Contains(s.mirror.reactions, models.PostRef(id))
}

func (s *ServiceTestSuite) TestReactRequiresUser() {
	id := s.createPost("dunes")

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/reactions", id),
		map[string]string{"reaction": "like"}, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *ServiceTestSuite) TestInvalidReactionRejected() {
	id := s.createPost("dunes")

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/reactions", id),
		map[string]string{"reaction": "adore"},
		map[string]string{"X-User-ID": "7"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *ServiceTestSuite) TestCommentLifecycle() {
	id := s.createPost("city night")

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", id),
		map[string]string{"content": "great shot"},
		map[string]string{"X-User-ID": "3"})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var comment models.Comment
	s.decode(resp, &comment)
	s.NotZero(comment.ID)
	s.drain()

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", id), nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Comments []*models.Comment `json:"comments"`
	}
	s.decode(resp, &out)
	s.Require().Len(out.Comments, 1)
	s.Equal("great shot", out.Comments[0].Content)

	posts := db.NewPostStore(s.store)
	post, err := posts.GetPost(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(int64(1), post.CommentCount)
}

func (s *ServiceTestSuite) TestVaultLifecycle() {
	postID := s.createPost("meadow")
	vaultID := s.createVault(5, "favorites")

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/vaults/%d/posts", vaultID),
		map[string]int64{"post_id": postID}, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	s.drain()

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/vaults/%d/posts", vaultID), nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Posts []*models.Post `json:"posts"`
	}
	s.decode(resp, &out)
	s.Require().Len(out.Posts, 1)
	s.Equal(postID, out.Posts[0].ID)

	// The save counts toward the post's engagement.
	posts := db.NewPostStore(s.store)
	post, err := posts.GetPost(context.Background(), postID)
	s.Require().NoError(err)
	s.Equal(int64(1), post.Saves)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/vaults/%d/posts/%d", vaultID, postID), nil, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func (s *ServiceTestSuite) TestVaultLogSeedsScores() {
	vaultID := s.createVault(5, "landscapes")
	s.backdateVault(vaultID)

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/vaults/%d/log", vaultID), nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out map[string]string
	s.decode(resp, &out)
	s.Equal("seeded", out["outcome"])

	// Inside the cooldown a second log is a no-op.
	resp = s.do(http.MethodPost, fmt.Sprintf("/api/vaults/%d/log", vaultID), nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &out)
	s.Equal("skipped", out["outcome"])
}

func (s *ServiceTestSuite) TestSearchLogsQuery() {
	s.createPost("red panda tree")

	resp := s.do(http.MethodGet, "/api/search/posts?query=panda+red", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Posts []*models.Post `json:"posts"`
	}
	s.decode(resp, &out)
	s.Require().Len(out.Posts, 1)
	s.drain()

	searches := db.NewSearchStore(s.store)
	search, err := searches.GetSearch(context.Background(), db.NormalizeQuery("red panda"))
	s.Require().NoError(err)
	s.Equal(float64(1), search.Score)
}

func (s *ServiceTestSuite) TestSearchSuggestions() {
	resp := s.do(http.MethodGet, "/api/search/posts?query=forest+cabin", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodGet, "/api/search/suggestions?query=forest", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	s.decode(resp, &out)
	s.Require().Len(out.Suggestions, 1)
	s.Equal("cabin forest", out.Suggestions[0])
}

func (s *ServiceTestSuite) TestSearchVaultsPublicOnly() {
	vaultID := s.createVault(5, "mountain views")
	resp := s.do(http.MethodPost, "/api/vaults",
		map[string]interface{}{"title": "mountain secrets", "privacy": "private"},
		map[string]string{"X-User-ID": "5"})
	s.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodGet, "/api/search/vaults?query=mountain", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Vaults []*models.Vault `json:"vaults"`
	}
	s.decode(resp, &out)
	s.Require().Len(out.Vaults, 1)
	s.Equal(vaultID, out.Vaults[0].ID)
}

func (s *ServiceTestSuite) TestContentTypeEnforced() {
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/posts",
		bytes.NewBufferString(`[{"title":"x"}]`))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
	resp.Body.Close()
}

func (s *ServiceTestSuite) TestPostMetricsAfterRecompute() {
	vaultID := s.createVault(5, "metrics check")
	s.backdateVault(vaultID)
	resp := s.do(http.MethodPost, fmt.Sprintf("/api/vaults/%d/log", vaultID), nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	metrics := db.NewMetricStore(s.store)
	history, err := metrics.History(context.Background(), models.VaultRef(vaultID), 10)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
