package gorm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// CommentStore persists comments and keeps post.comment_count in step.
type CommentStore struct {
	store *Store
}

// NewCommentStore creates a CommentStore on the shared connection.
func NewCommentStore(store *Store) *CommentStore {
	return &CommentStore{store: store}
}

// CreateComment inserts a comment and bumps the post's comment counter in
// the same transaction.
func (s *CommentStore) CreateComment(ctx context.Context, comment *models.Comment, now time.Time) error {
	if comment.DateCreated.IsZero() {
		comment.DateCreated = now
	}
	rec := &Comment{
		DateCreated: comment.DateCreated,
		UserID:      comment.UserID,
		PostID:      comment.PostID,
		Content:     comment.Content,
	}

	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		res := tx.Exec("UPDATE post SET comment_count = comment_count + 1 WHERE id = ?", comment.PostID)
		if res.Error != nil {
			return fmt.Errorf("bump comment_count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	comment.ID = rec.ID
	return nil
}

// ListComments returns the post's comments, newest first.
func (s *CommentStore) ListComments(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 32
	}

	var recs []Comment
	err := s.store.DB.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("date_created DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list comments for post %d: %w", postID, err)
	}

	comments := make([]*models.Comment, len(recs))
	for i := range recs {
		comments[i] = recs[i].toModel()
	}
	return comments, nil
}
