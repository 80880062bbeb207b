package embedding

import (
	"context"
	"errors"

	"github.com/galindo-legaria/alite/pkg/cache"
)

// Common errors returned by embedding providers.
var (
	ErrEmptyInput     = errors.New("empty input text")
	ErrRateLimited    = errors.New("rate limited by embedding provider")
	ErrInvalidAPIKey  = errors.New("invalid API key")
	ErrModelNotFound  = errors.New("embedding model not found")
	ErrContextTooLong = errors.New("input text exceeds model context length")
)

// Provider defines the interface for text embedding services.
type Provider interface {
	// Embed converts a single text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts into vector embeddings.
	// More efficient than calling Embed multiple times.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension for this provider.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// cachedProviderPrefix scopes every key CachedProvider writes into its
// backing cache.Cache, so its entries never collide with column.Sampler's
// column-keyed entries on a shared cache backend.
const cachedProviderPrefix = "alite:embed-text"

// CachedProvider wraps a Provider with a cache.Cache, keyed by a hash of the
// raw input text rather than by any column/table context (unlike
// column.Sampler's cache usage, CachedProvider has no such context - it only
// ever sees strings).
type CachedProvider struct {
	provider Provider
	cache    cache.Cache
}

// NewCachedProvider creates a cached embedding provider backed by an
// in-memory LRU cache capped at maxSize entries.
func NewCachedProvider(provider Provider, maxSize int) *CachedProvider {
	cfg := cache.DefaultConfig()
	if maxSize > 0 {
		cfg.MaxSize = int64(maxSize)
	}
	return &CachedProvider{
		provider: provider,
		cache:    cache.NewMemoryCache(cfg),
	}
}

func textKey(text string) string {
	return cachedProviderPrefix + ":" + cache.HashValues([]string{text})
}

// Embed returns cached embedding or computes and caches it.
func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := textKey(text)
	if cached, err := c.cache.Get(ctx, key); err == nil {
		return cache.DecodeVector(cached), nil
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, cache.EncodeVector(vec), 0)
	return vec, nil
}

// EmbedBatch embeds multiple texts, using cache where available.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	uncached := make([]string, 0)
	uncachedIdx := make([]int, 0)

	for i, text := range texts {
		if cached, err := c.cache.Get(ctx, textKey(text)); err == nil {
			results[i] = cache.DecodeVector(cached)
		} else {
			uncached = append(uncached, text)
			uncachedIdx = append(uncachedIdx, i)
		}
	}

	if len(uncached) > 0 {
		embeddings, err := c.provider.EmbedBatch(ctx, uncached)
		if err != nil {
			return nil, err
		}

		for i, vec := range embeddings {
			idx := uncachedIdx[i]
			results[idx] = vec
			_ = c.cache.Set(ctx, textKey(uncached[i]), cache.EncodeVector(vec), 0)
		}
	}

	return results, nil
}

// Dimension returns the embedding dimension.
func (c *CachedProvider) Dimension() int {
	return c.provider.Dimension()
}

// ModelName returns the model name.
func (c *CachedProvider) ModelName() string {
	return c.provider.ModelName()
}

// CacheSize returns the current cache size.
func (c *CachedProvider) CacheSize() int {
	return int(c.cache.Stats().Size)
}

// ClearCache clears the embedding cache.
func (c *CachedProvider) ClearCache() {
	_ = c.cache.Clear(context.Background())
}
