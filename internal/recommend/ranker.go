// Package recommend produces similar-post and vault recommendations from
// embedding distance and vault membership.
package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hollowmoss/keepsake/pkg/models"
)

const (
	// DefaultPoolSize is how many cosine-nearest candidates feed the sample.
	DefaultPoolSize = 100
	// DefaultSampleSize is how many posts a recommendation returns.
	DefaultSampleSize = 32
	// DefaultVaultLimit caps vaults-for-post recommendations.
	DefaultVaultLimit = 4
)

// CandidateSource supplies ranked candidates. Implemented by
// internal/db/gorm on top of pgvector.
type CandidateSource interface {
	// NearestPosts returns up to limit posts ordered by cosine distance to
	// the embedding, ties broken by score descending, excluding excludeID.
	NearestPosts(ctx context.Context, embedding []float32, excludeID int64, limit int) ([]*models.Post, error)
	// VaultsForPost returns up to limit public vaults containing the post,
	// ordered by vault score descending.
	VaultsForPost(ctx context.Context, postID int64, limit int) ([]*models.Vault, error)
}

// Ranker turns nearest-neighbor pools into recommendation sets. Sampling
// from the pool instead of returning it verbatim keeps repeat visits from
// seeing an identical wall of posts.
type Ranker struct {
	source CandidateSource

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRanker creates a ranker over the given candidate source.
func NewRanker(source CandidateSource) *Ranker {
	return &Ranker{
		source: source,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SimilarPosts returns up to DefaultSampleSize posts similar to the given
// post: the DefaultPoolSize cosine-nearest candidates, sampled uniformly
// without replacement. A pool smaller than the sample size is returned
// whole, never an error.
func (r *Ranker) SimilarPosts(ctx context.Context, post *models.Post) ([]*models.Post, error) {
	pool, err := r.source.NearestPosts(ctx, post.Embedding, post.ID, DefaultPoolSize)
	if err != nil {
		return nil, fmt.Errorf("nearest posts for %d: %w", post.ID, err)
	}
	return r.sample(pool, DefaultSampleSize), nil
}

// VaultsForPost returns up to DefaultVaultLimit public vaults containing
// the post, best-scored first.
func (r *Ranker) VaultsForPost(ctx context.Context, postID int64) ([]*models.Vault, error) {
	vaults, err := r.source.VaultsForPost(ctx, postID, DefaultVaultLimit)
	if err != nil {
		return nil, fmt.Errorf("vaults for post %d: %w", postID, err)
	}
	return vaults, nil
}

// sample picks n elements uniformly without replacement via a partial
// Fisher-Yates shuffle. The pool slice is reordered in place.
func (r *Ranker) sample(pool []*models.Post, n int) []*models.Post {
	if len(pool) <= n {
		return pool
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < n; i++ {
		j := i + r.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
