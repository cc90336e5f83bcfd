package scoring

import (
	"context"
	"time"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// MetricStore is the append-only snapshot log the aggregator and recomputer
// read from. Implemented by internal/db/gorm.
type MetricStore interface {
	// Latest returns the most recent snapshot for the entity, or nil when
	// the log is empty.
	Latest(ctx context.Context, ref models.TargetRef) (*models.MetricSnapshot, error)
	// SumSince returns the sum of snapshot scores recorded at or after
	// since. An empty window sums to 0, never NULL.
	SumSince(ctx context.Context, ref models.TargetRef, since time.Time) (float64, error)
	// AvgSince returns the average snapshot score at or after since, 0 for
	// an empty window.
	AvgSince(ctx context.Context, ref models.TargetRef, since time.Time) (float64, error)
}

// Aggregator answers windowed popularity and average queries over the
// metric log.
type Aggregator struct {
	metrics MetricStore
}

// NewAggregator creates an aggregator over the given metric log.
func NewAggregator(metrics MetricStore) *Aggregator {
	return &Aggregator{metrics: metrics}
}

// Popularity sums the snapshot scores of the trailing window of the given
// length in days.
func (a *Aggregator) Popularity(ctx context.Context, ref models.TargetRef, days int, now time.Time) (float64, error) {
	return a.metrics.SumSince(ctx, ref, now.AddDate(0, 0, -days))
}

// Average returns the mean snapshot score of the trailing window of the
// given length in days.
func (a *Aggregator) Average(ctx context.Context, ref models.TargetRef, days int, now time.Time) (float64, error) {
	return a.metrics.AvgSince(ctx, ref, now.AddDate(0, 0, -days))
}
