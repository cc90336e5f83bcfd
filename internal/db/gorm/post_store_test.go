package gorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowmoss/keepsake/pkg/models"
)

func TestCreatePostsAssignsIDs(t *testing.T) {
	store := testStore(t)
	posts := NewPostStore(store)
	ctx := context.Background()
	now := testTime()

	batch := []*models.Post{
		{Title: "a", Rating: models.RatingSafe, Type: models.FileImage, Embedding: []float32{0.1, 0.2}},
		{Title: "b", Rating: models.RatingSafe, Type: models.FileVideo},
	}
	require.NoError(t, posts.CreatePosts(ctx, batch, now))
	assert.NotZero(t, batch[0].ID)
	assert.NotZero(t, batch[1].ID)
	assert.NotEqual(t, batch[0].ID, batch[1].ID)

	got, err := posts.GetPost(ctx, batch[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, []float32{0.1, 0.2}, got.Embedding)
	assert.True(t, got.LastUpdated.Equal(now))
}

func TestGetPostNotFound(t *testing.T) {
	store := testStore(t)
	posts := NewPostStore(store)

	_, err := posts.GetPost(context.Background(), 9999)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestListPostsFiltersTagsAndOrders(t *testing.T) {
	store := testStore(t)
	posts := NewPostStore(store)
	ctx := context.Background()
	now := testTime()

	batch := []*models.Post{
		{Tags: "forest cat", Rating: models.RatingSafe, Type: models.FileImage},
		{Tags: "forest dog", Rating: models.RatingSafe, Type: models.FileImage},
		{Tags: "city cat", Rating: models.RatingSafe, Type: models.FileImage},
	}
	require.NoError(t, posts.CreatePosts(ctx, batch, now))
	require.NoError(t, store.DB.Exec("UPDATE post SET week_score = 5 WHERE id = ?", batch[2].ID).Error)

	got, err := posts.ListPosts(ctx, ListParams{Query: "cat", Order: models.OrderWeek})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, batch[2].ID, got[0].ID)
	assert.Equal(t, batch[0].ID, got[1].ID)

	got, err = posts.ListPosts(ctx, ListParams{Query: "forest cat", Order: models.OrderNewest})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, batch[0].ID, got[0].ID)
}

func TestIncrementViews(t *testing.T) {
	store := testStore(t)
	posts := NewPostStore(store)
	ctx := context.Background()
	now := testTime()

	post := createTestPost(t, store, now)
	require.NoError(t, posts.IncrementViews(ctx, post.ID))
	require.NoError(t, posts.IncrementViews(ctx, post.ID))

	got, err := posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	// Views do not advance the recompute clock.
	assert.True(t, got.LastUpdated.Equal(post.LastUpdated))
}

func TestNearestPostsRequiresPostgres(t *testing.T) {
	store := testStore(t)
	posts := NewPostStore(store)

	_, err := posts.NearestPosts(context.Background(), []float32{0.1}, 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
