package embedregistry

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/skosovsky/macrodex"
	"github.com/skosovsky/macrodex/manifest"
)

// Registry loads all YAML manifests from an fs.FS at construction (eager). No mutex.
var _ macrodex.Registry = (*Registry)(nil)

type Registry struct {
	cache map[string]*macrodex.Template
	paths map[string]string // template name -> manifest path, for duplicate reports
}

// New walks fsys, parses every .yaml/.yml file under root, and returns a Registry.
// Two manifests declaring the same template name fail construction.
func New(fsys fs.FS, root string, _ ...Option) (*Registry, error) {
	r := &Registry{
		cache: make(map[string]*macrodex.Template),
		paths: make(map[string]string),
	}
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || (!strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml")) {
			return nil
		}
		tpl, err := manifest.ParseFS(fsys, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := r.paths[tpl.Name]; dup {
			return fmt.Errorf("%w: %s: template %q already declared by %s", macrodex.ErrInvalidManifest, path, tpl.Name, prev)
		}
		r.cache[tpl.Name] = tpl
		r.paths[tpl.Name] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Option is a functional option for Registry (reserved for future use).
type Option func(*Registry)

// GetTemplate returns a template by name. O(1) map lookup.
func (r *Registry) GetTemplate(ctx context.Context, name string) (*macrodex.Template, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if tpl, ok := r.cache[name]; ok {
		return tpl, nil
	}
	return nil, fmt.Errorf("%w: %q", macrodex.ErrTemplateNotFound, name)
}

// Names returns every loaded template name, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.cache))
}
