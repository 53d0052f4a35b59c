package remoteregistry

import (
	"log/slog"
	"time"
)

// Option configures a Registry.
type Option func(*Registry)

// WithTTL sets how long a fetched template is served from cache. Default is
// 5 minutes; TTL <= 0 caches until Evict or EvictAll.
func WithTTL(d time.Duration) Option {
	return func(r *Registry) {
		r.ttl = d
	}
}

// WithLogger sets the logger for cache and fetch events (Debug level).
// Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// withClock replaces time.Now for TTL checks.
func withClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}
