package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgvec "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// PostStore provides post persistence and the pgvector candidate queries
// behind similarity recommendations.
type PostStore struct {
	store *Store
}

// NewPostStore creates a PostStore on the shared connection.
func NewPostStore(store *Store) *PostStore {
	return &PostStore{store: store}
}

// CreatePosts inserts a batch of posts and fills in their assigned ids.
func (s *PostStore) CreatePosts(ctx context.Context, posts []*models.Post, now time.Time) error {
	if len(posts) == 0 {
		return nil
	}
	recs := make([]*Post, len(posts))
	for i, p := range posts {
		if p.DateCreated.IsZero() {
			p.DateCreated = now
		}
		if p.LastUpdated.IsZero() {
			p.LastUpdated = now
		}
		recs[i] = postFromModel(p)
	}
	if err := s.store.DB.WithContext(ctx).Create(&recs).Error; err != nil {
		return fmt.Errorf("create posts: %w", err)
	}
	for i, rec := range recs {
		posts[i].ID = rec.ID
	}
	return nil
}

// GetPost returns one post by id, models.ErrNotFound when missing.
func (s *PostStore) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var rec Post
	err := s.store.DB.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return rec.toModel(), nil
}

// ListParams control listing queries. Query is matched against tags, every
// whitespace-separated token must appear.
type ListParams struct {
	Query  string
	Order  models.Order
	Limit  int
	Offset int
}

// ListPosts returns posts matching the params, ordered by the requested
// score column.
func (s *PostStore) ListPosts(ctx context.Context, params ListParams) ([]*models.Post, error) {
	q := s.store.DB.WithContext(ctx).Model(&Post{})
	for _, tag := range strings.Fields(params.Query) {
		q = q.Where("tags LIKE ?", "%"+tag+"%")
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 32
	}

	var recs []Post
	err := q.Order(orderClause(params.Order)).
		Limit(limit).
		Offset(params.Offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]*models.Post, len(recs))
	for i := range recs {
		posts[i] = recs[i].toModel()
	}
	return posts, nil
}

// IncrementViews bumps the view counter without touching last_updated.
func (s *PostStore) IncrementViews(ctx context.Context, id int64) error {
	err := s.store.DB.WithContext(ctx).
		Exec("UPDATE post SET views = views + 1 WHERE id = ?", id).Error
	if err != nil {
		return fmt.Errorf("increment views for %d: %w", id, err)
	}
	return nil
}

// NearestPosts returns up to limit posts ordered by cosine distance to the
// embedding, ties broken by score. PostgreSQL only: the query goes through
// the pgvector <=> operator and the hnsw index.
func (s *PostStore) NearestPosts(ctx context.Context, embedding []float32, excludeID int64, limit int) ([]*models.Post, error) {
	if !s.store.isPostgres() {
		return nil, fmt.Errorf("nearest posts: similarity search requires postgres")
	}
	if len(embedding) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	vec := pgvec.NewVector(embedding)
	var recs []Post
	err := s.store.DB.WithContext(ctx).
		Raw(`SELECT *, embedding <=> ? AS distance
		     FROM post
		     WHERE id <> ? AND embedding IS NOT NULL
		     ORDER BY distance ASC, score DESC
		     LIMIT ?`, vec, excludeID, limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("nearest posts: %w", err)
	}

	posts := make([]*models.Post, len(recs))
	for i := range recs {
		posts[i] = recs[i].toModel()
	}
	return posts, nil
}

// orderClause maps a listing order to its ORDER BY expression. Column names
// are fixed strings, never user input.
func orderClause(order models.Order) string {
	switch order {
	case models.OrderPopular:
		return "score DESC"
	case models.OrderWeek:
		return "week_score DESC"
	case models.OrderMonth:
		return "month_score DESC"
	case models.OrderYear:
		return "year_score DESC"
	case models.OrderNewest:
		return "date_created DESC"
	default:
		return "trend_score DESC"
	}
}
