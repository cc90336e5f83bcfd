package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// MetricStore is the append-only snapshot log. Rows are only ever inserted;
// recomputes append through ScoreStore.CommitRecompute so the snapshot and
// the score write-back share a transaction.
type MetricStore struct {
	db *gorm.DB
}

// NewMetricStore creates a MetricStore on the shared connection.
func NewMetricStore(store *Store) *MetricStore {
	return &MetricStore{db: store.DB}
}

// Append inserts a snapshot outside any recompute transaction. Backfill and
// tests use it; the hot path goes through CommitRecompute.
func (s *MetricStore) Append(ctx context.Context, snap *models.MetricSnapshot) error {
	rec := metricFromModel(snap)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	snap.ID = rec.ID
	return nil
}

// Latest returns the most recent snapshot for the entity, or nil when the
// log is empty.
func (s *MetricStore) Latest(ctx context.Context, ref models.TargetRef) (*models.MetricSnapshot, error) {
	var rec MetricSnapshot
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_key = ?", string(ref.Type), ref.ID).
		Order("date_created DESC, id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return rec.toModel(), nil
}

// SumSince sums the snapshot scores recorded at or after since. An empty
// window sums to 0.
func (s *MetricStore) SumSince(ctx context.Context, ref models.TargetRef, since time.Time) (float64, error) {
	var sum float64
	err := s.db.WithContext(ctx).
		Model(&MetricSnapshot{}).
		Where("target_type = ? AND target_key = ? AND date_created >= ?", string(ref.Type), ref.ID, since).
		Select("COALESCE(SUM(score), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum snapshots: %w", err)
	}
	return sum, nil
}

// AvgSince averages the snapshot scores recorded at or after since, 0 for
// an empty window.
func (s *MetricStore) AvgSince(ctx context.Context, ref models.TargetRef, since time.Time) (float64, error) {
	var avg float64
	err := s.db.WithContext(ctx).
		Model(&MetricSnapshot{}).
		Where("target_type = ? AND target_key = ? AND date_created >= ?", string(ref.Type), ref.ID, since).
		Select("COALESCE(AVG(score), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("avg snapshots: %w", err)
	}
	return avg, nil
}

// History returns the entity's snapshots, newest first, capped at limit.
func (s *MetricStore) History(ctx context.Context, ref models.TargetRef, limit int) ([]*models.MetricSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []MetricSnapshot
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_key = ?", string(ref.Type), ref.ID).
		Order("date_created DESC, id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]*models.MetricSnapshot, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func metricFromModel(snap *models.MetricSnapshot) *MetricSnapshot {
	return &MetricSnapshot{
		ID:          snap.ID,
		TargetType:  string(snap.Target.Type),
		TargetKey:   snap.Target.ID,
		DateCreated: snap.DateCreated,
		Score:       snap.Score,
		Activity:    snap.Activity,
	}
}
