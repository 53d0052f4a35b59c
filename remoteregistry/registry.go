package remoteregistry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skosovsky/macrodex"
	"github.com/skosovsky/macrodex/manifest"
)

const defaultTTL = 5 * time.Minute

var _ macrodex.Registry = (*Registry)(nil)

// Registry resolves templates through a Fetcher and caches the parsed result.
// Within one TTL window every lookup of a name returns the same
// *macrodex.Template, so collections built from it stay identity-stable.
// Concurrent misses for one name share a single fetch.
type Registry struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	sf      singleflight.Group
}

type entry struct {
	tpl     *macrodex.Template
	expires time.Time // zero means never
}

// New creates a Registry over fetcher. Panics if fetcher is nil.
func New(fetcher Fetcher, opts ...Option) *Registry {
	if fetcher == nil {
		panic("remoteregistry: Fetcher must not be nil")
	}
	r := &Registry{
		fetcher: fetcher,
		ttl:     defaultTTL,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetTemplate returns the cached template for name, fetching and parsing the
// manifest on a miss or after expiry. The manifest must declare name.
func (r *Registry) GetTemplate(ctx context.Context, name string) (*macrodex.Template, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if tpl, ok := r.cached(name); ok {
		return tpl, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err, shared := r.sf.Do(name, func() (any, error) {
		return r.load(ctx, name)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %q: %w", macrodex.ErrTemplateNotFound, name, err)
		}
		return nil, err
	}
	if shared {
		r.logger.DebugContext(ctx, "remote template fetch shared", "name", name)
	}
	return v.(*macrodex.Template), nil
}

func (r *Registry) cached(name string) (*macrodex.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok || (!e.expires.IsZero() && !r.now().Before(e.expires)) {
		return nil, false
	}
	return e.tpl, true
}

// load runs once per singleflight key. The fetch is detached from the
// caller's cancellation so one impatient caller cannot fail the others.
func (r *Registry) load(ctx context.Context, name string) (*macrodex.Template, error) {
	fetchCtx, cancel := detachCancel(ctx)
	defer cancel()

	start := r.now()
	data, err := r.fetcher.Fetch(fetchCtx, name)
	if err != nil {
		r.logger.DebugContext(ctx, "remote template fetch failed", "name", name, "err", err)
		return nil, err
	}
	tpl, err := manifest.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	if tpl.Name != name {
		return nil, fmt.Errorf("%w: manifest for %q declares name %q", macrodex.ErrInvalidManifest, name, tpl.Name)
	}

	var expires time.Time
	if r.ttl > 0 {
		expires = r.now().Add(r.ttl)
	}
	r.mu.Lock()
	r.entries[name] = entry{tpl: tpl, expires: expires}
	r.mu.Unlock()
	r.logger.DebugContext(ctx, "remote template cached",
		"name", name, "bytes", len(data), "elapsed", r.now().Sub(start), "macros", len(tpl.Macros))
	return tpl, nil
}

// detachCancel returns a context that survives parent's cancellation but keeps
// its deadline, so a stuck fetch (e.g. a git clone) still ends. Call cancel when done.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx)
}

// List returns the names the Fetcher can serve when it implements Lister,
// otherwise nil, nil.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lister, ok := r.fetcher.(Lister)
	if !ok {
		return nil, nil
	}
	return lister.ListNames(ctx)
}

// Evict drops name from the cache. Invalid names are ignored.
func (r *Registry) Evict(name string) {
	if ValidateName(name) != nil {
		return
	}
	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()
	r.logger.Debug("remote template evicted", "name", name)
}

// EvictAll drops every cached template.
func (r *Registry) EvictAll() {
	r.mu.Lock()
	n := len(r.entries)
	clear(r.entries)
	r.mu.Unlock()
	r.logger.Debug("remote template cache cleared", "entries", n)
}

// Close releases the Fetcher's resources when it has a Close method
// (git.Fetcher removes its clone).
func (r *Registry) Close() error {
	if c, ok := r.fetcher.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
