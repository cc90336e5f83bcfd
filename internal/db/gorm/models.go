package gorm

import (
	"time"

	pgvec "github.com/pgvector/pgvector-go"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// Post is the database record behind models.Post. The score columns are
// indexed because every listing orders by one of them.
type Post struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	DateCreated time.Time `gorm:"not null;index"`

	Title      string `gorm:"default:''"`
	PreviewURL string
	SampleURL  string
	FileURL    string
	Rating     string `gorm:"not null;default:'explicit'"`
	Type       string `gorm:"not null;default:'image'"`
	Tags       string
	Source     string

	Likes        int64 `gorm:"not null;default:0"`
	Dislikes     int64 `gorm:"not null;default:0"`
	Saves        int64 `gorm:"not null;default:0"`
	CommentCount int64 `gorm:"not null;default:0"`
	Views        int64 `gorm:"not null;default:0"`

	Embedding *pgvec.Vector `gorm:"type:vector(512)"`

	LastUpdated time.Time `gorm:"not null"`
	Score       float64   `gorm:"not null;default:0;index"`
	WeekScore   float64   `gorm:"not null;default:0;index"`
	MonthScore  float64   `gorm:"not null;default:0;index"`
	YearScore   float64   `gorm:"not null;default:0;index"`
	TrendScore  float64   `gorm:"not null;default:0;index"`
}

// TableName returns the table name for posts.
func (Post) TableName() string { return "post" }

func (p *Post) toModel() *models.Post {
	m := &models.Post{
		ID:           p.ID,
		DateCreated:  p.DateCreated,
		Title:        p.Title,
		PreviewURL:   p.PreviewURL,
		SampleURL:    p.SampleURL,
		FileURL:      p.FileURL,
		Rating:       models.RatingType(p.Rating),
		Type:         models.FileType(p.Type),
		Tags:         p.Tags,
		Source:       p.Source,
		Likes:        p.Likes,
		Dislikes:     p.Dislikes,
		Saves:        p.Saves,
		CommentCount: p.CommentCount,
		Views:        p.Views,
		LastUpdated:  p.LastUpdated,
		ScoreSet: models.ScoreSet{
			Score: p.Score,
			Week:  p.WeekScore,
			Month: p.MonthScore,
			Year:  p.YearScore,
			Trend: p.TrendScore,
		},
	}
	if p.Embedding != nil {
		m.Embedding = p.Embedding.Slice()
	}
	return m
}

func postFromModel(m *models.Post) *Post {
	rec := &Post{
		ID:           m.ID,
		DateCreated:  m.DateCreated,
		Title:        m.Title,
		PreviewURL:   m.PreviewURL,
		SampleURL:    m.SampleURL,
		FileURL:      m.FileURL,
		Rating:       string(m.Rating),
		Type:         string(m.Type),
		Tags:         m.Tags,
		Source:       m.Source,
		Likes:        m.Likes,
		Dislikes:     m.Dislikes,
		Saves:        m.Saves,
		CommentCount: m.CommentCount,
		Views:        m.Views,
		LastUpdated:  m.LastUpdated,
		Score:        m.Score,
		WeekScore:    m.Week,
		MonthScore:   m.Month,
		YearScore:    m.Year,
		TrendScore:   m.Trend,
	}
	if len(m.Embedding) > 0 {
		vec := pgvec.NewVector(m.Embedding)
		rec.Embedding = &vec
	}
	return rec
}

// Vault is the database record behind models.Vault.
type Vault struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	DateCreated time.Time `gorm:"not null"`

	UserID      int64  `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	PostCount   int64  `gorm:"not null;default:0"`
	Likes       int64  `gorm:"not null;default:0"`
	Dislikes    int64  `gorm:"not null;default:0"`
	Privacy     string `gorm:"not null;default:'private'"`

	LastUpdated time.Time `gorm:"not null"`
	Score       float64   `gorm:"not null;default:0;index"`
	WeekScore   float64   `gorm:"not null;default:0;index"`
	MonthScore  float64   `gorm:"not null;default:0;index"`
	YearScore   float64   `gorm:"not null;default:0;index"`
	TrendScore  float64   `gorm:"not null;default:0;index"`
}

// TableName returns the table name for vaults.
func (Vault) TableName() string { return "vault" }

func (v *Vault) toModel() *models.Vault {
	return &models.Vault{
		ID:          v.ID,
		DateCreated: v.DateCreated,
		UserID:      v.UserID,
		Title:       v.Title,
		Description: v.Description,
		PostCount:   v.PostCount,
		Likes:       v.Likes,
		Dislikes:    v.Dislikes,
		Privacy:     models.PrivacyType(v.Privacy),
		LastUpdated: v.LastUpdated,
		ScoreSet: models.ScoreSet{
			Score: v.Score,
			Week:  v.WeekScore,
			Month: v.MonthScore,
			Year:  v.YearScore,
			Trend: v.TrendScore,
		},
	}
}

func vaultFromModel(m *models.Vault) *Vault {
	return &Vault{
		ID:          m.ID,
		DateCreated: m.DateCreated,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		PostCount:   m.PostCount,
		Likes:       m.Likes,
		Dislikes:    m.Dislikes,
		Privacy:     string(m.Privacy),
		LastUpdated: m.LastUpdated,
		Score:       m.Score,
		WeekScore:   m.Week,
		MonthScore:  m.Month,
		YearScore:   m.Year,
		TrendScore:  m.Trend,
	}
}

// VaultPost is a vault membership row. The composite (post_id, vault_id)
// index serves vaults-for-post lookups.
type VaultPost struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	DateCreated time.Time `gorm:"not null"`
	Index       int64     `gorm:"column:index;not null;default:0"`
	VaultID     int64     `gorm:"not null;index;index:ix_vault_post,priority:2"`
	PostID      int64     `gorm:"not null;index:ix_vault_post,priority:1"`
}

// TableName returns the table name for vault memberships.
func (VaultPost) TableName() string { return "vault_post" }

// User owns vaults and comments.
type User struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	DateCreated time.Time `gorm:"not null"`
	Username    string    `gorm:"not null;uniqueIndex"`
}

// TableName returns the table name for users.
func (User) TableName() string { return "user" }

// Comment is a user comment on a post.
type Comment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	DateCreated time.Time `gorm:"not null"`
	UserID      int64     `gorm:"not null;index"`
	PostID      int64     `gorm:"not null;index"`
	Content     string    `gorm:"not null"`
	Likes       int64     `gorm:"not null;default:0"`
	Dislikes    int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for comments.
func (Comment) TableName() string { return "comment" }

func (c *Comment) toModel() *models.Comment {
	return &models.Comment{
		ID:          c.ID,
		DateCreated: c.DateCreated,
		UserID:      c.UserID,
		PostID:      c.PostID,
		Content:     c.Content,
		Likes:       c.Likes,
		Dislikes:    c.Dislikes,
	}
}

// Reaction stores one user's current reaction to one target. The unique
// index is what makes resubmission idempotent under concurrency.
type Reaction struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	DateCreated time.Time `gorm:"not null;index:ix_reaction_date_target,priority:1"`
	UserID      int64     `gorm:"not null;uniqueIndex:ux_reaction_user_target,priority:1"`
	TargetType  string    `gorm:"not null;uniqueIndex:ux_reaction_user_target,priority:2;index:ix_reaction_date_target,priority:2"`
	TargetID    int64     `gorm:"not null;uniqueIndex:ux_reaction_user_target,priority:3;index:ix_reaction_date_target,priority:3"`
	Type        string    `gorm:"not null"`
}

// TableName returns the table name for reactions.
func (Reaction) TableName() string { return "reaction" }

// Search is a normalized query with denormalized scores. Score is also the
// all-time hit counter.
type Search struct {
	Query       string    `gorm:"primaryKey"`
	LastUpdated time.Time `gorm:"not null"`
	Score       float64   `gorm:"not null;default:1;index"`
	WeekScore   float64   `gorm:"not null;default:1;index"`
	MonthScore  float64   `gorm:"not null;default:1;index"`
	YearScore   float64   `gorm:"not null;default:1;index"`
	TrendScore  float64   `gorm:"not null;default:0;index"`
}

// TableName returns the table name for searches.
func (Search) TableName() string { return "search" }

func (s *Search) toModel() *models.Search {
	return &models.Search{
		Query:       s.Query,
		LastUpdated: s.LastUpdated,
		ScoreSet: models.ScoreSet{
			Score: s.Score,
			Week:  s.WeekScore,
			Month: s.MonthScore,
			Year:  s.YearScore,
			Trend: s.TrendScore,
		},
	}
}

// MetricSnapshot is one append-only row in an entity's metric log. All
// entity kinds share one table keyed by (target_type, target_key).
type MetricSnapshot struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	TargetType  string    `gorm:"not null;index:ix_metric_target,priority:1"`
	TargetKey   string    `gorm:"not null;index:ix_metric_target,priority:2"`
	DateCreated time.Time `gorm:"not null;index:ix_metric_target,priority:3"`
	Score       float64   `gorm:"not null;default:0"`
	Activity    float64   `gorm:"not null;default:0"`
}

// TableName returns the table name for metric snapshots.
func (MetricSnapshot) TableName() string { return "metric_snapshot" }

func (m *MetricSnapshot) toModel() *models.MetricSnapshot {
	return &models.MetricSnapshot{
		ID:          m.ID,
		Target:      models.TargetRef{Type: models.TargetType(m.TargetType), ID: m.TargetKey},
		DateCreated: m.DateCreated,
		Score:       m.Score,
		Activity:    m.Activity,
	}
}
