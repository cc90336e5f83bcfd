package recommend

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowmoss/keepsake/pkg/models"
)

type fakeSource struct {
	posts  []*models.Post
	vaults []*models.Vault

	gotEmbedding []float32
	gotExclude   int64
	gotLimit     int
}

func (f *fakeSource) NearestPosts(_ context.Context, embedding []float32, excludeID int64, limit int) ([]*models.Post, error) {
	f.gotEmbedding = embedding
	f.gotExclude = excludeID
	f.gotLimit = limit
	if len(f.posts) > limit {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

func (f *fakeSource) VaultsForPost(_ context.Context, _ int64, limit int) ([]*models.Vault, error) {
	if len(f.vaults) > limit {
		return f.vaults[:limit], nil
	}
	return f.vaults, nil
}

func makePosts(n int) []*models.Post {
	posts := make([]*models.Post, n)
	for i := range posts {
		posts[i] = &models.Post{ID: int64(i + 1)}
	}
	return posts
}

func testRanker(source CandidateSource) *Ranker {
	return &Ranker{source: source, rng: rand.New(rand.NewSource(7))}
}

func TestSimilarPostsSamplesFromPool(t *testing.T) {
	source := &fakeSource{posts: makePosts(DefaultPoolSize)}
	r := testRanker(source)

	post := &models.Post{ID: 999, Embedding: []float32{0.1, 0.2}}
	got, err := r.SimilarPosts(context.Background(), post)
	require.NoError(t, err)

	assert.Len(t, got, DefaultSampleSize)
	assert.Equal(t, post.Embedding, source.gotEmbedding)
	assert.Equal(t, int64(999), source.gotExclude)
	assert.Equal(t, DefaultPoolSize, source.gotLimit)

	// Without replacement: no post appears twice.
	seen := make(map[int64]bool, len(got))
	for _, p := range got {
		assert.False(t, seen[p.ID], "post %d sampled twice", p.ID)
		seen[p.ID] = true
	}
}

func TestSimilarPostsClampsToSmallPool(t *testing.T) {
	source := &fakeSource{posts: makePosts(2)}
	r := testRanker(source)

	got, err := r.SimilarPosts(context.Background(), &models.Post{ID: 1})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSimilarPostsEmptyPool(t *testing.T) {
	source := &fakeSource{}
	r := testRanker(source)

	got, err := r.SimilarPosts(context.Background(), &models.Post{ID: 1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVaultsForPostCapped(t *testing.T) {
	source := &fakeSource{vaults: []*models.Vault{
		{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5},
	}}
	r := testRanker(source)

	got, err := r.VaultsForPost(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, DefaultVaultLimit)
}
