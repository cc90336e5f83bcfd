package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hollowmoss/keepsake/internal/reactions"
	"github.com/hollowmoss/keepsake/pkg/models"
)

// ReactionStore persists reactions and keeps the denormalized like/dislike
// counters consistent with them.
type ReactionStore struct {
	store *Store
}

// NewReactionStore creates a ReactionStore on the shared connection.
func NewReactionStore(store *Store) *ReactionStore {
	return &ReactionStore{store: store}
}

// React records the user's reaction to the target and applies the counter
// deltas, all in one transaction. It returns the previous reaction.
// Resubmitting the current reaction is a no-op; an unknown reaction value
// fails with models.ErrInvalidReaction before anything is written.
func (s *ReactionStore) React(ctx context.Context, userID int64, ref models.TargetRef, next models.ReactionType, now time.Time) (models.ReactionType, error) {
	if !next.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidReaction, next)
	}
	targetID, err := ref.NumericID()
	if err != nil {
		return "", fmt.Errorf("parse %s id: %w", ref.Type, err)
	}
	table, err := counterTable(ref.Type)
	if err != nil {
		return "", err
	}

	prev := models.ReactionNone
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		q := tx.Where("user_id = ? AND target_type = ? AND target_id = ?",
			userID, string(ref.Type), targetID)
		if s.store.isPostgres() {
			// Serializes concurrent transitions by the same user; without
			// the row lock two writers could both read the same prev and
			// double-apply the delta.
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var rec Reaction
		err := q.First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No prior reaction.
		case err != nil:
			return fmt.Errorf("load reaction: %w", err)
		default:
			prev = models.ReactionType(rec.Type)
		}

		if prev == next {
			return nil
		}

		if rec.ID == 0 {
			rec = Reaction{
				DateCreated: now,
				UserID:      userID,
				TargetType:  string(ref.Type),
				TargetID:    targetID,
				Type:        string(next),
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("create reaction: %w", err)
			}
		} else {
			err := tx.Model(&rec).Updates(map[string]interface{}{
				"type":         string(next),
				"date_created": now,
			}).Error
			if err != nil {
				return fmt.Errorf("update reaction: %w", err)
			}
		}

		likes, dislikes, err := reactions.Deltas(prev, next)
		if err != nil {
			return err
		}
		if likes == 0 && dislikes == 0 {
			return nil
		}
		err = tx.Exec(
			fmt.Sprintf("UPDATE %s SET likes = likes + ?, dislikes = dislikes + ? WHERE id = ?", table),
			likes, dislikes, targetID,
		).Error
		if err != nil {
			return fmt.Errorf("apply counter deltas: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return prev, nil
}

// GetReaction returns the user's current reaction to the target,
// ReactionNone when there is none.
func (s *ReactionStore) GetReaction(ctx context.Context, userID int64, ref models.TargetRef) (models.ReactionType, error) {
	targetID, err := ref.NumericID()
	if err != nil {
		return "", fmt.Errorf("parse %s id: %w", ref.Type, err)
	}

	var rec Reaction
	err = s.store.DB.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, string(ref.Type), targetID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReactionNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("get reaction: %w", err)
	}
	return models.ReactionType(rec.Type), nil
}

// counterTable maps a reactable target type to the table carrying its
// like/dislike counters.
func counterTable(t models.TargetType) (string, error) {
	switch t {
	case models.TargetPost:
		return "post", nil
	case models.TargetVault:
		return "vault", nil
	case models.TargetComment:
		return "comment", nil
	default:
		return "", fmt.Errorf("target %q is not reactable", t)
	}
}
