package collectioncache

import (
	"time"

	"github.com/skosovsky/macrodex"
)

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a built collection is reused. Default is 5 minutes.
// TTL <= 0 keeps collections until Invalidate or Flush.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithCleanupInterval sets how often expired collections are purged.
// Default is 10 minutes; <= 0 disables the background janitor.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.cleanup = d
	}
}

// WithBuildOptions sets the options passed to every macrodex.Build.
func WithBuildOptions(opts ...macrodex.BuildOption) Option {
	return func(c *Cache) {
		c.buildOpts = append(c.buildOpts, opts...)
	}
}
