package macrodex

import (
	"context"
	"fmt"
)

// Ensures MapRegistry implements Registry.
var _ Registry = MapRegistry(nil)

// MapRegistry is an in-memory Registry keyed by template name. Each key must
// equal its template's Name; GetTemplate rejects entries that disagree.
// It is not safe for concurrent mutation; fill it before use.
type MapRegistry map[string]*Template

// NewMapRegistry returns a MapRegistry holding tpls. A later template with
// the same name replaces an earlier one.
func NewMapRegistry(tpls ...*Template) MapRegistry {
	r := make(MapRegistry, len(tpls))
	for _, t := range tpls {
		r[t.Name] = t
	}
	return r
}

// GetTemplate returns the template registered under name.
func (r MapRegistry) GetTemplate(ctx context.Context, name string) (*Template, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if tpl, ok := r[name]; ok && tpl != nil {
		if tpl.Name != name {
			return nil, fmt.Errorf("%w: registered as %q but declares name %q", ErrInvalidManifest, name, tpl.Name)
		}
		return tpl, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
}
