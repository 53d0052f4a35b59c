package collectioncache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/skosovsky/macrodex"
)

const (
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = 10 * time.Minute
)

// Cache memoizes macrodex.Build results keyed by root template name.
// Safe for concurrent use.
type Cache struct {
	reg       macrodex.Registry
	ttl       time.Duration
	cleanup   time.Duration
	buildOpts []macrodex.BuildOption

	items *gocache.Cache
	sf    singleflight.Group
}

// New creates a Cache over reg. Panics if reg is nil.
func New(reg macrodex.Registry, opts ...Option) *Cache {
	if reg == nil {
		panic("collectioncache: Registry must not be nil")
	}
	c := &Cache{
		reg:     reg,
		ttl:     defaultTTL,
		cleanup: defaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.items = gocache.New(c.expiration(), c.cleanup)
	return c
}

func (c *Cache) expiration() time.Duration {
	if c.ttl <= 0 {
		return gocache.NoExpiration
	}
	return c.ttl
}

// Get returns the collection rooted at root, building it on a miss.
func (c *Cache) Get(ctx context.Context, root string) (*macrodex.MacroCollection, error) {
	if err := macrodex.ValidateName(root); err != nil {
		return nil, err
	}
	if v, ok := c.items.Get(root); ok {
		if coll, ok := v.(*macrodex.MacroCollection); ok {
			return coll, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := c.sf.Do(root, func() (any, error) {
		buildCtx, cancel := detachCancel(ctx)
		defer cancel()
		tpl, err := c.reg.GetTemplate(buildCtx, root)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, fmt.Errorf("%w: %q", macrodex.ErrTemplateNotFound, root)
		}
		coll, err := macrodex.Build(buildCtx, c.reg, tpl, c.buildOpts...)
		if err != nil {
			return nil, err
		}
		c.items.Set(root, coll, gocache.DefaultExpiration)
		return coll, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*macrodex.MacroCollection), nil
}

// Invalidate drops the cached collection for root.
func (c *Cache) Invalidate(root string) {
	c.items.Delete(root)
}

// Flush drops every cached collection.
func (c *Cache) Flush() {
	c.items.Flush()
}

// Len reports the number of cached collections, including expired ones not yet cleaned up.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// detachCancel keeps the shared build alive when the first caller's ctx is
// cancelled, while still honouring its deadline.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx)
}
