package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache defines a generic cache interface
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, data V)
	Delete(key K) bool
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Expiring is a Cache whose entries age out and can be swept by a Janitor.
type Expiring[K comparable, V any] interface {
	Cache[K, V]
	Cleaner
}

var _ Expiring[string, int] = (*LRUCache[string, int])(nil)

// Janitor periodically cleans the registered caches.
type Janitor struct {
	caches []Cleaner
	logger *slog.Logger
}

func NewJanitor(logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{logger: logger}
}

// Register adds a cache to the janitor.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Run cleans every interval until ctx is done. It always returns ctx.Err().
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			total := 0
			for _, c := range j.caches {
				total += c.CleanExpired()
			}
			if total > 0 {
				j.logger.DebugContext(ctx, "Expired cache entries removed", "count", total)
			}
		}
	}
}
