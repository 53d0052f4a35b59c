// Package collectioncache caches built macro collections per root template.
//
// A Cache resolves the root through a macrodex.Registry, builds its
// MacroCollection at most once per TTL window, and shares the result with
// every caller. Concurrent misses for the same root are collapsed into one
// build. Failed builds are never cached.
//
//	reg, _ := fileregistry.New("./templates")
//	c := collectioncache.New(reg, collectioncache.WithTTL(time.Minute))
//	coll, err := c.Get(ctx, "page.html")
package collectioncache
