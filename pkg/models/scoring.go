package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Engagement weights for the all-time activity score. Likes and dislikes
// both count as engagement; comments and saves signal more effort and are
// weighted higher.
const (
	CommentWeight = 2
	SaveWeight    = 3
)

// Counters holds the denormalized engagement counters of an entity.
type Counters struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Saves    int64 `json:"saves"`
	Comments int64 `json:"comments"`
}

// Activity returns the all-time activity score derived from the counters:
// likes + dislikes + comments*2 + saves*3.
func (c Counters) Activity() float64 {
	return float64(c.Likes + c.Dislikes + c.Comments*CommentWeight + c.Saves*SaveWeight)
}

// ScoreSet is the full set of denormalized scores carried by every scorable
// entity.
type ScoreSet struct {
	// Score is the all-time activity score.
	Score float64 `json:"score"`
	// Week, Month and Year are windowed popularity sums over the metric log.
	Week  float64 `json:"week_score"`
	Month float64 `json:"month_score"`
	Year  float64 `json:"year_score"`
	// Trend is the short-window average minus the baseline-window average.
	// Positive means accelerating, negative means cooling off.
	Trend float64 `json:"trend_score"`
}

// ScoringConfig contains the recompute cooldown and the aggregation windows.
type ScoringConfig struct {
	// Cooldown is the minimum time between recomputes of one entity.
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`

	// TrendRecentDays and TrendBaselineDays are the two averaging windows
	// whose difference is the trend score.
	TrendRecentDays   int `json:"trend_recent_days" yaml:"trend_recent_days"`
	TrendBaselineDays int `json:"trend_baseline_days" yaml:"trend_baseline_days"`

	// Popularity windows, in days.
	WeekWindowDays  int `json:"week_window_days" yaml:"week_window_days"`
	MonthWindowDays int `json:"month_window_days" yaml:"month_window_days"`
	YearWindowDays  int `json:"year_window_days" yaml:"year_window_days"`
}

// UnmarshalYAML decodes the scoring section, accepting the cooldown as a
// duration string ("24h", "30m"). Absent fields keep their current values,
// so defaults survive a partial settings file.
func (c *ScoringConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Cooldown          string `yaml:"cooldown"`
		TrendRecentDays   int    `yaml:"trend_recent_days"`
		TrendBaselineDays int    `yaml:"trend_baseline_days"`
		WeekWindowDays    int    `yaml:"week_window_days"`
		MonthWindowDays   int    `yaml:"month_window_days"`
		YearWindowDays    int    `yaml:"year_window_days"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Cooldown != "" {
		d, err := time.ParseDuration(raw.Cooldown)
		if err != nil {
			return fmt.Errorf("parse cooldown %q: %w", raw.Cooldown, err)
		}
		c.Cooldown = d
	}
	if raw.TrendRecentDays > 0 {
		c.TrendRecentDays = raw.TrendRecentDays
	}
	if raw.TrendBaselineDays > 0 {
		c.TrendBaselineDays = raw.TrendBaselineDays
	}
	if raw.WeekWindowDays > 0 {
		c.WeekWindowDays = raw.WeekWindowDays
	}
	if raw.MonthWindowDays > 0 {
		c.MonthWindowDays = raw.MonthWindowDays
	}
	if raw.YearWindowDays > 0 {
		c.YearWindowDays = raw.YearWindowDays
	}
	return nil
}

// DefaultScoringConfig returns the default scoring configuration.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		Cooldown:          24 * time.Hour,
		TrendRecentDays:   3,
		TrendBaselineDays: 14,
		WeekWindowDays:    7,
		MonthWindowDays:   30,
		YearWindowDays:    365,
	}
}
