package gorm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// SearchStore persists normalized search queries and their hit counters.
type SearchStore struct {
	store *Store
}

// NewSearchStore creates a SearchStore on the shared connection.
func NewSearchStore(store *Store) *SearchStore {
	return &SearchStore{store: store}
}

// NormalizeQuery lowercases, splits and sorts the query tokens so that
// "cat forest" and "Forest  cat" land on the same search row.
func NormalizeQuery(query string) string {
	tokens := strings.Fields(strings.ToLower(query))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// LogSearch upserts the normalized query and increments its hit counter,
// then returns the current row. New queries start at score 1.
func (s *SearchStore) LogSearch(ctx context.Context, query string, now time.Time) (*models.Search, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, fmt.Errorf("log search: empty query")
	}

	rec := Search{
		Query:       normalized,
		LastUpdated: now,
		Score:       1,
		WeekScore:   1,
		MonthScore:  1,
		YearScore:   1,
	}
	err := s.store.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "query"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"score": gorm.Expr("score + 1")}),
		}).
		Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("log search %q: %w", normalized, err)
	}

	return s.GetSearch(ctx, normalized)
}

// GetSearch returns the search row for a normalized query,
// models.ErrNotFound when the query has never been searched.
func (s *SearchStore) GetSearch(ctx context.Context, normalized string) (*models.Search, error) {
	var rec Search
	err := s.store.DB.WithContext(ctx).Where("query = ?", normalized).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get search %q: %w", normalized, err)
	}
	return rec.toModel(), nil
}

// Suggestions returns the best-scored queries starting with the given
// prefix, capped at limit.
func (s *SearchStore) Suggestions(ctx context.Context, prefix string, limit int) ([]*models.Search, error) {
	if limit <= 0 || limit > 20 {
		limit = 8
	}

	q := s.store.DB.WithContext(ctx).Model(&Search{})
	if prefix = strings.ToLower(strings.TrimSpace(prefix)); prefix != "" {
		q = q.Where("query LIKE ?", prefix+"%")
	}

	var recs []Search
	err := q.Order("score DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("search suggestions: %w", err)
	}

	out := make([]*models.Search, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}
