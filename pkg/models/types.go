// Package models contains domain models for keepsake.
package models

import "strconv"

// ReactionType represents a user's reaction to a post, vault, or comment.
type ReactionType string

const (
	// ReactionNone clears any previous reaction.
	ReactionNone ReactionType = "none"
	// ReactionLike is a positive reaction.
	ReactionLike ReactionType = "like"
	// ReactionDislike is a negative reaction.
	ReactionDislike ReactionType = "dislike"
)

// Valid reports whether r is one of the known reaction values.
func (r ReactionType) Valid() bool {
	switch r {
	case ReactionNone, ReactionLike, ReactionDislike:
		return true
	}
	return false
}

// TargetType identifies the kind of entity a reaction or metric refers to.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetVault   TargetType = "vault"
	TargetComment TargetType = "comment"
	TargetSearch  TargetType = "search"
)

// PrivacyType controls vault visibility.
type PrivacyType string

const (
	PrivacyPrivate PrivacyType = "private"
	PrivacyPublic  PrivacyType = "public"
)

// RatingType is the content rating of a post.
type RatingType string

const (
	RatingSafe         RatingType = "safe"
	RatingQuestionable RatingType = "questionable"
	RatingExplicit     RatingType = "explicit"
)

// FileType is the media type of a post.
type FileType string

const (
	FileImage FileType = "image"
	FileVideo FileType = "video"
	FileGif   FileType = "gif"
)

// Order is a sort key for post and vault listings.
type Order string

const (
	OrderTrending Order = "trending"
	OrderPopular  Order = "popular"
	OrderWeek     Order = "week"
	OrderMonth    Order = "month"
	OrderYear     Order = "year"
	OrderNewest   Order = "newest"
)

// Valid reports whether o is a known ordering.
func (o Order) Valid() bool {
	switch o {
	case OrderTrending, OrderPopular, OrderWeek, OrderMonth, OrderYear, OrderNewest:
		return true
	}
	return false
}

// TargetRef identifies a scorable or reactable entity. ID holds the decimal
// entity id for posts, vaults and comments, and the normalized query string
// for searches.
type TargetRef struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// PostRef builds a reference to a post.
func PostRef(id int64) TargetRef {
	return TargetRef{Type: TargetPost, ID: strconv.FormatInt(id, 10)}
}

// VaultRef builds a reference to a vault.
func VaultRef(id int64) TargetRef {
	return TargetRef{Type: TargetVault, ID: strconv.FormatInt(id, 10)}
}

// CommentRef builds a reference to a comment.
func CommentRef(id int64) TargetRef {
	return TargetRef{Type: TargetComment, ID: strconv.FormatInt(id, 10)}
}

// SearchRef builds a reference to a normalized search query.
func SearchRef(query string) TargetRef {
	return TargetRef{Type: TargetSearch, ID: query}
}

// NumericID parses the reference id as an integer entity id.
func (r TargetRef) NumericID() (int64, error) {
	return strconv.ParseInt(r.ID, 10, 64)
}

// String returns a stable key, usable for deduplication and log fields.
func (r TargetRef) String() string {
	return string(r.Type) + ":" + r.ID
}
