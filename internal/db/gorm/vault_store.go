package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// VaultStore provides vault and vault-membership persistence.
type VaultStore struct {
	store *Store
}

// NewVaultStore creates a VaultStore on the shared connection.
func NewVaultStore(store *Store) *VaultStore {
	return &VaultStore{store: store}
}

// CreateVault inserts a vault and fills in its assigned id.
func (s *VaultStore) CreateVault(ctx context.Context, vault *models.Vault, now time.Time) error {
	if vault.DateCreated.IsZero() {
		vault.DateCreated = now
	}
	if vault.LastUpdated.IsZero() {
		vault.LastUpdated = now
	}
	if vault.Privacy == "" {
		vault.Privacy = models.PrivacyPrivate
	}
	rec := vaultFromModel(vault)
	if err := s.store.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create vault: %w", err)
	}
	vault.ID = rec.ID
	return nil
}

// GetVault returns one vault by id, models.ErrNotFound when missing.
func (s *VaultStore) GetVault(ctx context.Context, id int64) (*models.Vault, error) {
	var rec Vault
	err := s.store.DB.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vault %d: %w", id, err)
	}
	return rec.toModel(), nil
}

// VaultUpdate carries the caller-editable vault fields. Nil pointers leave
// the stored value unchanged.
type VaultUpdate struct {
	Title       *string
	Description *string
	Privacy     *models.PrivacyType
}

// UpdateVault applies the non-nil fields of update to the vault.
func (s *VaultStore) UpdateVault(ctx context.Context, id int64, update VaultUpdate) error {
	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Privacy != nil {
		fields["privacy"] = string(*update.Privacy)
	}
	if len(fields) == 0 {
		return nil
	}

	res := s.store.DB.WithContext(ctx).Model(&Vault{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update vault %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteVault removes a vault and its memberships.
func (s *VaultStore) DeleteVault(ctx context.Context, id int64) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("vault_id = ?", id).Delete(&VaultPost{}).Error; err != nil {
			return fmt.Errorf("delete vault %d memberships: %w", id, err)
		}
		res := tx.Delete(&Vault{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete vault %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// ListVaults returns public vaults matching the params, ordered by the
// requested score column. Query tokens match against the title.
func (s *VaultStore) ListVaults(ctx context.Context, params ListParams) ([]*models.Vault, error) {
	q := s.store.DB.WithContext(ctx).Model(&Vault{}).
		Where("privacy = ?", string(models.PrivacyPublic))
	for _, token := range strings.Fields(params.Query) {
		q = q.Where("title LIKE ?", "%"+token+"%")
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 32
	}

	var recs []Vault
	err := q.Order(orderClause(params.Order)).
		Limit(limit).
		Offset(params.Offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}

	vaults := make([]*models.Vault, len(recs))
	for i := range recs {
		vaults[i] = recs[i].toModel()
	}
	return vaults, nil
}

// AddPost appends a post to a vault. Saving a post into a vault is what the
// saves counter counts, so post.saves and vault.post_count move in the same
// transaction as the membership insert. Adding a post twice is a no-op.
func (s *VaultStore) AddPost(ctx context.Context, vaultID, postID int64, now time.Time) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&VaultPost{}).
			Where("vault_id = ? AND post_id = ?", vaultID, postID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if existing > 0 {
			return nil
		}

		var vault Vault
		if err := tx.First(&vault, vaultID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return fmt.Errorf("get vault %d: %w", vaultID, err)
		}

		rec := &VaultPost{
			DateCreated: now,
			Index:       vault.PostCount,
			VaultID:     vaultID,
			PostID:      postID,
		}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("add post %d to vault %d: %w", postID, vaultID, err)
		}
		if err := tx.Exec("UPDATE vault SET post_count = post_count + 1 WHERE id = ?", vaultID).Error; err != nil {
			return fmt.Errorf("bump post_count: %w", err)
		}
		if err := tx.Exec("UPDATE post SET saves = saves + 1 WHERE id = ?", postID).Error; err != nil {
			return fmt.Errorf("bump saves: %w", err)
		}
		return nil
	})
}

// RemovePost removes a post from a vault, reversing the counters AddPost
// moved. Removing an absent post is a no-op.
func (s *VaultStore) RemovePost(ctx context.Context, vaultID, postID int64) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("vault_id = ? AND post_id = ?", vaultID, postID).Delete(&VaultPost{})
		if res.Error != nil {
			return fmt.Errorf("remove post %d from vault %d: %w", postID, vaultID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Exec("UPDATE vault SET post_count = post_count - 1 WHERE id = ? AND post_count > 0", vaultID).Error; err != nil {
			return fmt.Errorf("drop post_count: %w", err)
		}
		if err := tx.Exec("UPDATE post SET saves = saves - 1 WHERE id = ? AND saves > 0", postID).Error; err != nil {
			return fmt.Errorf("drop saves: %w", err)
		}
		return nil
	})
}

// VaultPosts returns the posts of a vault in membership order.
func (s *VaultStore) VaultPosts(ctx context.Context, vaultID int64, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 32
	}

	var recs []Post
	err := s.store.DB.WithContext(ctx).
		Joins("JOIN vault_post ON vault_post.post_id = post.id").
		Where("vault_post.vault_id = ?", vaultID).
		Order(`vault_post."index" ASC`).
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("vault %d posts: %w", vaultID, err)
	}

	posts := make([]*models.Post, len(recs))
	for i := range recs {
		posts[i] = recs[i].toModel()
	}
	return posts, nil
}

// VaultsForPost returns up to limit public vaults containing the post,
// best-scored first. Feeds the cross-entity recommendation.
func (s *VaultStore) VaultsForPost(ctx context.Context, postID int64, limit int) ([]*models.Vault, error) {
	if limit <= 0 {
		limit = 4
	}

	var recs []Vault
	err := s.store.DB.WithContext(ctx).
		Joins("JOIN vault_post ON vault_post.vault_id = vault.id").
		Where("vault_post.post_id = ? AND vault.privacy = ?", postID, string(models.PrivacyPublic)).
		Order("vault.score DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("vaults for post %d: %w", postID, err)
	}

	vaults := make([]*models.Vault, len(recs))
	for i := range recs {
		vaults[i] = recs[i].toModel()
	}
	return vaults, nil
}
