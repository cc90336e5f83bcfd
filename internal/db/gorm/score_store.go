package gorm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// ScoreStore persists recompute results for posts, vaults and searches.
type ScoreStore struct {
	store *Store
}

// NewScoreStore creates a ScoreStore on the shared connection.
func NewScoreStore(store *Store) *ScoreStore {
	return &ScoreStore{store: store}
}

// CommitRecompute atomically writes the score set and last_updated to the
// entity and appends the snapshot. The entity update carries a
// compare-and-swap on last_updated == observed; when it matches no row, a
// concurrent recompute won the race and models.ErrConflict is returned with
// nothing written.
func (s *ScoreStore) CommitRecompute(ctx context.Context, ref models.TargetRef, scores models.ScoreSet, snap *models.MetricSnapshot, observed, now time.Time) error {
	updates := map[string]interface{}{
		"score":        scores.Score,
		"week_score":   scores.Week,
		"month_score":  scores.Month,
		"year_score":   scores.Year,
		"trend_score":  scores.Trend,
		"last_updated": now,
	}

	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var res *gorm.DB
		switch ref.Type {
		case models.TargetPost, models.TargetVault:
			id, err := ref.NumericID()
			if err != nil {
				return fmt.Errorf("parse %s id: %w", ref.Type, err)
			}
			model := interface{}(&Post{})
			if ref.Type == models.TargetVault {
				model = &Vault{}
			}
			res = tx.Model(model).
				Where("id = ? AND last_updated = ?", id, observed).
				Updates(updates)
		case models.TargetSearch:
			// score is the live hit counter for searches; overwriting it
			// here would drop increments made since the entity was read.
			searchUpdates := make(map[string]interface{}, len(updates))
			for k, v := range updates {
				if k != "score" {
					searchUpdates[k] = v
				}
			}
			res = tx.Model(&Search{}).
				Where("query = ? AND last_updated = ?", ref.ID, observed).
				Updates(searchUpdates)
		default:
			return fmt.Errorf("unsupported scorable target %q", ref.Type)
		}

		if res.Error != nil {
			return fmt.Errorf("write scores for %s: %w", ref, res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrConflict
		}

		if err := tx.Create(metricFromModel(snap)).Error; err != nil {
			return fmt.Errorf("append snapshot for %s: %w", ref, err)
		}
		return nil
	})
}
