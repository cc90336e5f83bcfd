package models

import "time"

// Scorable is the contract the score recomputer works against. Posts, vaults
// and searches implement it; the recomputer never touches concrete entity
// types.
type Scorable interface {
	// Ref identifies the entity in the metric log and the score tables.
	Ref() TargetRef
	// ActivityScore is the all-time activity derived from the entity's
	// current counters.
	ActivityScore() float64
	// ScoredAt is the time of the last committed recompute.
	ScoredAt() time.Time
}

// User owns vaults and comments. Authentication fields are a collaborator
// concern and not modeled here.
type User struct {
	ID          int64     `json:"id"`
	DateCreated time.Time `json:"date_created"`
	Username    string    `json:"username"`
}

// Post is a piece of content with engagement counters, a CLIP embedding and
// denormalized scores.
type Post struct {
	ID          int64      `json:"id"`
	DateCreated time.Time  `json:"date_created"`
	Title       string     `json:"title"`
	PreviewURL  string     `json:"preview_url"`
	SampleURL   string     `json:"sample_url"`
	FileURL     string     `json:"file_url"`
	Rating      RatingType `json:"rating"`
	Type        FileType   `json:"type"`
	Tags        string     `json:"tags"`
	Source      string     `json:"source"`

	Likes        int64 `json:"likes"`
	Dislikes     int64 `json:"dislikes"`
	Saves        int64 `json:"saves"`
	CommentCount int64 `json:"comment_count"`
	Views        int64 `json:"views"`

	// Embedding is an opaque image embedding supplied at creation time.
	Embedding []float32 `json:"embedding,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
	ScoreSet
}

// Ref implements Scorable.
func (p *Post) Ref() TargetRef { return PostRef(p.ID) }

// Counters returns the post's engagement counters.
func (p *Post) Counters() Counters {
	return Counters{Likes: p.Likes, Dislikes: p.Dislikes, Saves: p.Saves, Comments: p.CommentCount}
}

// ActivityScore implements Scorable.
func (p *Post) ActivityScore() float64 { return p.Counters().Activity() }

// ScoredAt implements Scorable.
func (p *Post) ScoredAt() time.Time { return p.LastUpdated }

// Vault is a user-curated collection of posts.
type Vault struct {
	ID          int64       `json:"id"`
	DateCreated time.Time   `json:"date_created"`
	UserID      int64       `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	PostCount   int64       `json:"post_count"`
	Likes       int64       `json:"likes"`
	Dislikes    int64       `json:"dislikes"`
	Privacy     PrivacyType `json:"privacy"`
	LastUpdated time.Time   `json:"last_updated"`
	ScoreSet
}

// Ref implements Scorable.
func (v *Vault) Ref() TargetRef { return VaultRef(v.ID) }

// Counters returns the vault's engagement counters. Vaults have no saves or
// comments; only likes and dislikes feed the activity score.
func (v *Vault) Counters() Counters {
	return Counters{Likes: v.Likes, Dislikes: v.Dislikes}
}

// ActivityScore implements Scorable.
func (v *Vault) ActivityScore() float64 { return v.Counters().Activity() }

// ScoredAt implements Scorable.
func (v *Vault) ScoredAt() time.Time { return v.LastUpdated }

// VaultPost is the vault membership row. Index is the position of the post
// within the vault.
type VaultPost struct {
	ID          int64     `json:"id"`
	DateCreated time.Time `json:"date_created"`
	Index       int64     `json:"index"`
	VaultID     int64     `json:"vault_id"`
	PostID      int64     `json:"post_id"`
}

// Comment is a user comment on a post.
type Comment struct {
	ID          int64     `json:"id"`
	DateCreated time.Time `json:"date_created"`
	UserID      int64     `json:"user_id"`
	PostID      int64     `json:"post_id"`
	Content     string    `json:"content"`
	Likes       int64     `json:"likes"`
	Dislikes    int64     `json:"dislikes"`
}

// Reaction is one user's current reaction to one target. At most one row
// exists per (user, target); resubmitting the same value is a no-op.
type Reaction struct {
	ID          int64        `json:"id"`
	DateCreated time.Time    `json:"date_created"`
	UserID      int64        `json:"user_id"`
	TargetType  TargetType   `json:"target_type"`
	TargetID    int64        `json:"target_id"`
	Type        ReactionType `json:"type"`
}

// Search is a normalized query with its own scores. Score doubles as the
// all-time hit counter: it is incremented on every search for the query, so
// the recomputer's write-back of ActivityScore leaves it unchanged.
type Search struct {
	Query       string    `json:"query"`
	LastUpdated time.Time `json:"last_updated"`
	ScoreSet
}

// Ref implements Scorable.
func (s *Search) Ref() TargetRef { return SearchRef(s.Query) }

// ActivityScore implements Scorable.
func (s *Search) ActivityScore() float64 { return s.Score }

// ScoredAt implements Scorable.
func (s *Search) ScoredAt() time.Time { return s.LastUpdated }

// MetricSnapshot is one append-only entry in an entity's metric log.
type MetricSnapshot struct {
	ID          int64     `json:"id"`
	Target      TargetRef `json:"target"`
	DateCreated time.Time `json:"date_created"`

	// Score is the activity logged by this snapshot: the delta accumulated
	// since the previous snapshot, or the absolute activity for the first
	// snapshot of an entity.
	Score float64 `json:"score"`

	// Activity is the entity's absolute activity score at snapshot time.
	// The next recompute subtracts it to obtain its delta.
	Activity float64 `json:"activity"`
}
