package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

const vectorKeyPrefix = "embedding:"

// VectorStore keeps listing embeddings in Redis as JSON arrays keyed by
// listing id. It implements retriever.VectorIndex. Unlike the cache
// methods, vector reads fail loudly when Redis is down so the search
// path can decide how to degrade.
type VectorStore struct {
	redis *Redis
}

func NewVectorStore(r *Redis) *VectorStore {
	return &VectorStore{redis: r}
}

func (s *VectorStore) Upsert(ctx context.Context, id string, vector []float32) error {
	if s.redis.isUnavailable() {
		return ErrUnavailable
	}
	b, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode vector %s: %w", id, err)
	}
	// Vectors have no TTL; stale entries are removed with the listing.
	return s.redis.client.Set(ctx, vectorKeyPrefix+id, b, 0).Err()
}

func (s *VectorStore) Vectors(ctx context.Context, ids []string) (map[string][]float32, error) {
	if s.redis.isUnavailable() {
		return nil, ErrUnavailable
	}
	if len(ids) == 0 {
		return map[string][]float32{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = vectorKeyPrefix + id
	}
	vals, err := s.redis.client.MGet(ctx, keys...).Result()
	if err != nil {
		s.redis.warnUnavailableOnce(err)
		return nil, err
	}

	out := make(map[string][]float32, len(ids))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok || raw == "" {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			// A corrupt entry behaves like a missing one.
			if s.redis.logger != nil {
				s.redis.logger.Printf("[Cache] corrupt vector dropped | id=%s", ids[i])
			}
			continue
		}
		out[ids[i]] = vec
	}
	return out, nil
}

func (s *VectorStore) Delete(ctx context.Context, ids []string) error {
	if s.redis.isUnavailable() {
		return ErrUnavailable
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = vectorKeyPrefix + id
	}
	return s.redis.Delete(ctx, keys...)
}
