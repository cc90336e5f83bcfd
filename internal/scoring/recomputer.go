package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// Outcome describes what a MaybeRecompute call did.
type Outcome int

const (
	// OutcomeSkipped means the entity was still within its cooldown (or the
	// call failed before any write).
	OutcomeSkipped Outcome = iota
	// OutcomeSeeded means the entity had no metric history and its first
	// snapshot was written.
	OutcomeSeeded
	// OutcomeRecomputed means a full recompute committed.
	OutcomeRecomputed
	// OutcomeConflict means a concurrent recompute won the write race. The
	// entity's scores are fresh either way, so callers treat this as
	// success.
	OutcomeConflict
)

// String returns a log-friendly name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSeeded:
		return "seeded"
	case OutcomeRecomputed:
		return "recomputed"
	case OutcomeConflict:
		return "conflict"
	default:
		return "skipped"
	}
}

// ScoreStore persists recompute results. Implemented by internal/db/gorm.
type ScoreStore interface {
	// CommitRecompute atomically writes the score set and last_updated to
	// the entity and appends the snapshot, in one transaction guarded by a
	// compare-and-swap on last_updated == observed. It returns
	// models.ErrConflict when the CAS finds no matching row.
	CommitRecompute(ctx context.Context, ref models.TargetRef, scores models.ScoreSet, snap *models.MetricSnapshot, observed, now time.Time) error
}

// Recomputer is the cooldown-gated score recompute state machine. A single
// instance serializes concurrent recomputes of the same entity through
// singleflight; across processes the store-level CAS arbitrates.
type Recomputer struct {
	metrics MetricStore
	scores  ScoreStore
	agg     *Aggregator
	cfg     *models.ScoringConfig
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewRecomputer creates a recomputer over the given stores. A nil cfg uses
// the defaults.
func NewRecomputer(metrics MetricStore, scores ScoreStore, cfg *models.ScoringConfig) *Recomputer {
	if cfg == nil {
		cfg = models.DefaultScoringConfig()
	}
	return &Recomputer{
		metrics: metrics,
		scores:  scores,
		agg:     NewAggregator(metrics),
		cfg:     cfg,
		logger:  log.With().Str("component", "scoring").Logger(),
	}
}

// MaybeRecompute recomputes the entity's scores if its cooldown has elapsed.
// Within the cooldown it returns OutcomeSkipped without touching the store.
// An error means nothing was written; the entity is untouched.
func (r *Recomputer) MaybeRecompute(ctx context.Context, entity models.Scorable, now time.Time) (Outcome, error) {
	if now.Before(entity.ScoredAt().Add(r.cfg.Cooldown)) {
		return OutcomeSkipped, nil
	}

	ref := entity.Ref()
	v, err, _ := r.group.Do(ref.String(), func() (interface{}, error) {
		return r.recompute(ctx, entity, now)
	})
	if err != nil {
		return OutcomeSkipped, err
	}
	return v.(Outcome), nil
}

func (r *Recomputer) recompute(ctx context.Context, entity models.Scorable, now time.Time) (Outcome, error) {
	ref := entity.Ref()

	prev, err := r.metrics.Latest(ctx, ref)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("latest snapshot for %s: %w", ref, err)
	}

	activity := entity.ActivityScore()

	if prev == nil {
		return r.seed(ctx, entity, activity, now)
	}

	// The snapshot logs the activity accumulated since the previous one.
	delta := activity - prev.Activity

	recent, err := r.agg.Average(ctx, ref, r.cfg.TrendRecentDays, now)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("recent average for %s: %w", ref, err)
	}
	baseline, err := r.agg.Average(ctx, ref, r.cfg.TrendBaselineDays, now)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("baseline average for %s: %w", ref, err)
	}

	week, err := r.agg.Popularity(ctx, ref, r.cfg.WeekWindowDays, now)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("week popularity for %s: %w", ref, err)
	}
	month, err := r.agg.Popularity(ctx, ref, r.cfg.MonthWindowDays, now)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("month popularity for %s: %w", ref, err)
	}
	year, err := r.agg.Popularity(ctx, ref, r.cfg.YearWindowDays, now)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("year popularity for %s: %w", ref, err)
	}

	// The new delta counts toward the popularity windows immediately, as if
	// the snapshot had already been appended. The trend averages only see
	// committed snapshots; the delta reaches them on the next recompute.
	scores := models.ScoreSet{
		Score: activity,
		Week:  week + delta,
		Month: month + delta,
		Year:  year + delta,
		Trend: Trend(recent, baseline),
	}
	snap := &models.MetricSnapshot{
		Target:      ref,
		DateCreated: now,
		Score:       delta,
		Activity:    activity,
	}

	if err := r.scores.CommitRecompute(ctx, ref, scores, snap, entity.ScoredAt(), now); err != nil {
		if errors.Is(err, models.ErrConflict) {
			r.logger.Debug().Str("target", ref.String()).Msg("Recompute lost write race")
			return OutcomeConflict, nil
		}
		return OutcomeSkipped, fmt.Errorf("commit recompute for %s: %w", ref, err)
	}

	r.logger.Debug().
		Str("target", ref.String()).
		Float64("score", scores.Score).
		Float64("delta", delta).
		Float64("trend", scores.Trend).
		Msg("Recomputed scores")

	return OutcomeRecomputed, nil
}

// seed writes the first snapshot of an entity. The seed logs the absolute
// activity and becomes the baseline every later delta is measured against;
// no window queries are needed because the log was empty.
func (r *Recomputer) seed(ctx context.Context, entity models.Scorable, activity float64, now time.Time) (Outcome, error) {
	ref := entity.Ref()

	scores := models.ScoreSet{
		Score: activity,
		Week:  activity,
		Month: activity,
		Year:  activity,
		Trend: 0,
	}
	snap := &models.MetricSnapshot{
		Target:      ref,
		DateCreated: now,
		Score:       activity,
		Activity:    activity,
	}

	if err := r.scores.CommitRecompute(ctx, ref, scores, snap, entity.ScoredAt(), now); err != nil {
		if errors.Is(err, models.ErrConflict) {
			r.logger.Debug().Str("target", ref.String()).Msg("Seed lost write race")
			return OutcomeConflict, nil
		}
		return OutcomeSkipped, fmt.Errorf("commit seed for %s: %w", ref, err)
	}

	r.logger.Debug().Str("target", ref.String()).Float64("score", activity).Msg("Seeded metric log")
	return OutcomeSeeded, nil
}
