// Package scoring implements the multi-horizon popularity and trend scoring
// engine: windowed aggregation over the append-only metric log, the trend
// calculation, and the cooldown-gated recomputer that ties them together.
package scoring

import "github.com/hollowmoss/keepsake/pkg/models"

// CalculateScore returns the all-time activity score for raw engagement
// counters.
func CalculateScore(likes, dislikes, saves, comments int64) float64 {
	return models.Counters{
		Likes:    likes,
		Dislikes: dislikes,
		Saves:    saves,
		Comments: comments,
	}.Activity()
}

// Trend compares a recent-window average against a baseline-window average.
// Positive means activity is accelerating, negative means it is cooling off,
// zero means steady (including the no-history case where both inputs are 0).
func Trend(recent, baseline float64) float64 {
	return recent - baseline
}
