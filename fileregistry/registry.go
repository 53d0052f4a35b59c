package fileregistry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/skosovsky/macrodex"
	"github.com/skosovsky/macrodex/manifest"
)

// Ensures Registry implements macrodex.Registry.
var _ macrodex.Registry = (*Registry)(nil)

// Registry loads templates from the filesystem (lazy, cached).
// Repeated lookups of a name return the same *macrodex.Template until Reload.
type Registry struct {
	dir        string
	extensions []string
	mu         sync.RWMutex
	cache      map[string]*macrodex.Template
}

// New creates a Registry that reads YAML manifests from dir.
func New(dir string, opts ...Option) *Registry {
	r := &Registry{
		dir:        dir,
		extensions: []string{".yaml", ".yml"},
		cache:      make(map[string]*macrodex.Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Registry.
type Option func(*Registry)

// WithExtensions sets the manifest file extensions tried in order (default ".yaml", ".yml").
func WithExtensions(exts ...string) Option {
	return func(r *Registry) {
		if len(exts) > 0 {
			r.extensions = exts
		}
	}
}

// GetTemplate returns a template by name. Lazy-loads and caches.
// File resolution: {dir}/{name}{ext} for each configured extension.
// The manifest's name must equal the requested name.
func (r *Registry) GetTemplate(ctx context.Context, name string) (*macrodex.Template, error) {
	if err := macrodex.ValidateName(name); err != nil {
		return nil, err
	}
	r.mu.RLock()
	tpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl, ok = r.cache[name]
	if ok {
		return tpl, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for _, ext := range r.extensions {
		path := filepath.Join(r.dir, filepath.FromSlash(name)+ext)
		tpl, err := manifest.ParseFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if tpl.Name != name {
			return nil, fmt.Errorf("%w: %s: declares name %q, want %q", macrodex.ErrInvalidManifest, path, tpl.Name, name)
		}
		r.cache[name] = tpl
		return tpl, nil
	}
	return nil, fmt.Errorf("%w: %q", macrodex.ErrTemplateNotFound, name)
}

// Reload clears the cache (for hot-reload in development).
// Collections built before Reload keep referencing the old templates.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*macrodex.Template)
}

// List walks dir and returns the template name of every manifest file with a
// configured extension, sorted. It reads no manifest content, so a listed name
// may still fail to load.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, ext := range r.extensions {
			if name, ok := strings.CutSuffix(rel, ext); ok {
				if macrodex.ValidateName(name) == nil {
					names = append(names, name)
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fileregistry: list %s: %w", r.dir, err)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
