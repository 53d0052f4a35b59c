package macrodex

import (
	"fmt"
	"maps"
	"slices"
)

// Template is a parsed template as far as macro resolution is concerned.
// Use NewTemplate to construct; options are applied via TemplateOption.
// Fields must not be mutated after construction: collections built from the
// template reference its Macros directly.
type Template struct {
	Name    string
	Macros  MacroSet
	Imports []MacroImport // declaration order
	Parents []string      // declaration order
}

// NewTemplate builds a template with defensive copies and applies options.
// Returns ErrInvalidName if name or any referenced template name is invalid,
// and ErrInvalidManifest for malformed import namespaces.
func NewTemplate(name string, opts ...TemplateOption) (*Template, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	tpl := &Template{Name: name}
	for _, opt := range opts {
		opt(tpl)
	}
	tpl.Macros = maps.Clone(tpl.Macros)
	if tpl.Macros == nil {
		tpl.Macros = make(MacroSet)
	}
	tpl.Imports = slices.Clone(tpl.Imports)
	tpl.Parents = slices.Clone(tpl.Parents)

	for key, m := range tpl.Macros {
		if key == "" || m == nil {
			return nil, fmt.Errorf("%w: template %q: empty macro entry %q", ErrInvalidManifest, name, key)
		}
		if m.Name == "" {
			def := *m
			def.Name = key
			tpl.Macros[key] = &def
		} else if m.Name != key {
			return nil, fmt.Errorf("%w: template %q: macro %q registered as %q", ErrInvalidManifest, name, m.Name, key)
		}
	}
	seen := make(map[string]bool, len(tpl.Imports))
	for i, imp := range tpl.Imports {
		if err := ValidateName(imp.File); err != nil {
			return nil, fmt.Errorf("template %q: import %d: %w", name, i, err)
		}
		switch {
		case imp.Namespace == "":
			return nil, fmt.Errorf("%w: template %q: import %d: empty namespace", ErrInvalidManifest, name, i)
		case imp.Namespace == SelfNamespace:
			return nil, fmt.Errorf("%w: template %q: import %d: namespace %q is reserved", ErrInvalidManifest, name, i, SelfNamespace)
		case seen[imp.Namespace]:
			return nil, fmt.Errorf("%w: template %q: duplicate namespace %q", ErrInvalidManifest, name, imp.Namespace)
		}
		seen[imp.Namespace] = true
	}
	for i, parent := range tpl.Parents {
		if err := ValidateName(parent); err != nil {
			return nil, fmt.Errorf("template %q: parent %d: %w", name, i, err)
		}
	}
	return tpl, nil
}

// MacroNames returns the template's own macro names, sorted.
func (t *Template) MacroNames() []string {
	return slices.Sorted(maps.Keys(t.Macros))
}
