package gorm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// testStore creates a Store on a temporary sqlite database. Everything but
// the pgvector similarity query behaves the same as on postgres.
func testStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStoreWithDialector(sqlite.Open(dbPath), Config{
		MaxConns: 4,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testTime() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func createTestPost(t *testing.T, store *Store, now time.Time) *models.Post {
	t.Helper()

	post := &models.Post{
		Title:  "test post",
		Rating: models.RatingSafe,
		Type:   models.FileImage,
		Tags:   "forest cat",
	}
	require.NoError(t, NewPostStore(store).CreatePosts(context.Background(), []*models.Post{post}, now))
	return post
}

func createTestVault(t *testing.T, store *Store, privacy models.PrivacyType, now time.Time) *models.Vault {
	t.Helper()

	vault := &models.Vault{
		UserID:  1,
		Title:   "test vault",
		Privacy: privacy,
	}
	require.NoError(t, NewVaultStore(store).CreateVault(context.Background(), vault, now))
	return vault
}
