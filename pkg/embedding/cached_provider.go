package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps an EmbeddingProvider with a Redis cache.
// Identical text under a fixed model always yields the same vector, so
// cache hits skip the provider round-trip entirely. Cache failures are
// never fatal: reads fall through to the inner provider, writes are
// best-effort.
type CachedProvider struct {
	inner EmbeddingProvider
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(inner EmbeddingProvider, rdb *redis.Client, ttl time.Duration) EmbeddingProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
	}
}

func cacheKey(text string) string {
	return fmt.Sprintf("emb:v1:%x", sha256.Sum256([]byte(text)))
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if cached := p.getFromCache(ctx, text); cached != nil {
		return cached, nil
	}

	res, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	p.setInCache(ctx, text, res)
	return res, nil
}

func (p *CachedProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*EmbeddingResponse, error) {
	results := make([]*EmbeddingResponse, len(texts))

	// Collect cache misses, keeping input order
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if cached := p.getFromCache(ctx, text); cached != nil {
			results[i] = cached
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}

	if len(missTexts) > 0 {
		generated, err := p.inner.GenerateBatch(ctx, missTexts, taskType)
		if err != nil {
			return nil, err
		}
		for j, res := range generated {
			results[missIdx[j]] = res
			p.setInCache(ctx, missTexts[j], res)
		}
	}

	return results, nil
}

func (p *CachedProvider) getFromCache(ctx context.Context, text string) *EmbeddingResponse {
	if p.rdb == nil {
		return nil
	}
	raw, err := p.rdb.Get(ctx, cacheKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[WARN] Embedding cache read error: %v", err)
		}
		return nil
	}

	var values []float32
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return &EmbeddingResponse{Embedding: EmbeddingValues{Values: values}}
}

func (p *CachedProvider) setInCache(ctx context.Context, text string, res *EmbeddingResponse) {
	if p.rdb == nil || res == nil {
		return
	}
	raw, err := json.Marshal(res.Embedding.Values)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, cacheKey(text), raw, p.ttl).Err(); err != nil {
		log.Printf("[WARN] Embedding cache write error: %v", err)
	}
}
