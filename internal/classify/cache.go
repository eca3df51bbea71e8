package classify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Cache stores ranked predictions by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]Prediction, bool)
	Set(ctx context.Context, key string, preds []Prediction)
}

// CacheKey identifies a text under a label set.
func CacheKey(text string, labels []string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(labels, "\x1f")))
	h.Write([]byte{0x1e})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

type memoryEntry struct {
	preds   []Prediction
	expires time.Time
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a cache holding at most max entries for ttl each.
func NewMemoryCache(ttl time.Duration, max int) *MemoryCache {
	if max <= 0 {
		max = 10000
	}
	return &MemoryCache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]Prediction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return append([]Prediction(nil), e.preds...), true
}

func (m *MemoryCache) Set(_ context.Context, key string, preds []Prediction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.max {
		m.evictLocked()
	}
	m.entries[key] = memoryEntry{
		preds:   append([]Prediction(nil), preds...),
		expires: m.now().Add(m.ttl),
	}
}

// evictLocked drops expired entries, or everything if none had expired.
func (m *MemoryCache) evictLocked() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) >= m.max {
		m.entries = make(map[string]memoryEntry)
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// CachedClassifier consults a cache before delegating.
type CachedClassifier struct {
	next     Classifier
	cache    Cache
	recorder Recorder
}

// NewCachedClassifier wraps next with cache.
func NewCachedClassifier(next Classifier, cache Cache, recorder Recorder) *CachedClassifier {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CachedClassifier{next: next, cache: cache, recorder: recorder}
}

func (c *CachedClassifier) Name() string { return c.next.Name() }

func (c *CachedClassifier) Classify(ctx context.Context, text string, labels []string) ([]Prediction, error) {
	key := CacheKey(text, labels)
	if preds, ok := c.cache.Get(ctx, key); ok {
		c.recorder.ClassifierRequest("cache", OutcomeCacheHit)
		return preds, nil
	}
	preds, err := c.next.Classify(ctx, text, labels)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, preds)
	return preds, nil
}
