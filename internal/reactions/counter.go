// Package reactions applies like/dislike state transitions to entity
// counters. The functions are pure; internal/db/gorm runs them inside the
// reaction upsert transaction.
package reactions

import (
	"fmt"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// Deltas returns the like and dislike counter adjustments for a transition
// from prev to next. Resubmitting the current reaction yields (0, 0).
func Deltas(prev, next models.ReactionType) (likes, dislikes int64, err error) {
	if !prev.Valid() {
		return 0, 0, fmt.Errorf("%w: %q", models.ErrInvalidReaction, prev)
	}
	if !next.Valid() {
		return 0, 0, fmt.Errorf("%w: %q", models.ErrInvalidReaction, next)
	}
	if prev == next {
		return 0, 0, nil
	}

	switch prev {
	case models.ReactionLike:
		likes--
	case models.ReactionDislike:
		dislikes--
	}
	switch next {
	case models.ReactionLike:
		likes++
	case models.ReactionDislike:
		dislikes++
	}
	return likes, dislikes, nil
}

// Apply adjusts the counters in place for a transition from prev to next.
// The counters never go negative as long as they were consistent with the
// stored reactions to begin with.
func Apply(c *models.Counters, prev, next models.ReactionType) error {
	likes, dislikes, err := Deltas(prev, next)
	if err != nil {
		return err
	}
	c.Likes += likes
	c.Dislikes += dislikes
	return nil
}
