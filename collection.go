package macrodex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// Namespace is one entry of a template's namespace map: the template that
// physically declares the macros (Origin) and that template's own MacroSet.
type Namespace struct {
	Origin string
	Macros MacroSet
}

// NamespaceMap maps namespace alias to Namespace for one template.
type NamespaceMap map[string]Namespace

// MacroCollection indexes, for every template reachable from one root, the
// namespaces that template can call macros through.
// A collection is immutable after Build and safe for concurrent Lookup.
// It references the templates' macro sets and must not be used after those
// templates are mutated.
type MacroCollection struct {
	root   string
	macros map[string]NamespaceMap
}

// Build collects macros from root and every template reachable from it via
// macro imports or parents. Each distinct template name is processed once.
// Registry failures abort the build; no partial collection is returned.
func Build(ctx context.Context, reg Registry, root *Template, opts ...BuildOption) (*MacroCollection, error) {
	if reg == nil {
		return nil, errors.New("macrodex: registry must not be nil")
	}
	if root == nil {
		return nil, errors.New("macrodex: root template must not be nil")
	}
	cfg := buildConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &builder{
		ctx:      ctx,
		reg:      reg,
		cfg:      cfg,
		macros:   make(map[string]NamespaceMap),
		resolved: map[string]*Template{root.Name: root},
		active:   make(map[string]int),
	}
	if err := b.run(root); err != nil {
		return nil, err
	}
	cfg.logger.Debug("macro collection built", "root", root.Name, "templates", len(b.macros))
	return &MacroCollection{root: root.Name, macros: b.macros}, nil
}

// frame is one template on the walk stack. Imports are collected first
// (next indexes Imports), then the namespace map is inserted and next is
// reused to index Parents.
type frame struct {
	tpl      *Template
	ns       NamespaceMap
	next     int
	inserted bool
}

func isInserted(f *frame) bool { return f.inserted }

type builder struct {
	ctx      context.Context
	reg      Registry
	cfg      buildConfig
	macros   map[string]NamespaceMap
	resolved map[string]*Template // per-build memo of registry results
	active   map[string]int       // template name -> stack index, while its imports are collected
}

func (b *builder) run(root *Template) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	stack, err := b.enter(nil, root)
	if err != nil {
		return err
	}
	for len(stack) > 0 {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		top := stack[len(stack)-1]
		tpl := top.tpl
		if !top.inserted {
			if top.next < len(tpl.Imports) {
				imp := tpl.Imports[top.next]
				top.next++
				dep, err := b.resolve(imp.File, tpl.Name, RelationImport)
				if err != nil {
					return err
				}
				top.ns[imp.Namespace] = Namespace{Origin: dep.Name, Macros: dep.Macros}
				if stack, err = b.enter(stack, dep); err != nil {
					return err
				}
				continue
			}
			b.macros[tpl.Name] = top.ns
			delete(b.active, tpl.Name)
			top.inserted, top.next = true, 0
			b.cfg.logger.Debug("collected template macros", "template", tpl.Name, "namespaces", len(top.ns))
			continue
		}
		if top.next < len(tpl.Parents) {
			name := tpl.Parents[top.next]
			top.next++
			parent, err := b.resolve(name, tpl.Name, RelationParent)
			if err != nil {
				return err
			}
			if stack, err = b.enter(stack, parent); err != nil {
				return err
			}
			continue
		}
		stack = stack[:len(stack)-1]
	}
	return nil
}

// enter pushes tpl unless it is already collected. Reaching a template that
// is still collecting its imports is a cycle. When every frame from it to the
// top is also still importing, the cycle consists only of imports and is
// handled per the cycle policy. Otherwise a parent edge closes it and the
// template is skipped; its entry lands when its own frame completes.
func (b *builder) enter(stack []*frame, tpl *Template) ([]*frame, error) {
	if _, done := b.macros[tpl.Name]; done {
		return stack, nil
	}
	if idx, ok := b.active[tpl.Name]; ok {
		if b.cfg.cycles == CyclePolicyAllow || slices.ContainsFunc(stack[idx:], isInserted) {
			b.cfg.logger.Debug("skipping template already being collected", "template", tpl.Name)
			return stack, nil
		}
		path := make([]string, 0, len(stack)-idx+1)
		for _, f := range stack[idx:] {
			path = append(path, f.tpl.Name)
		}
		return nil, &CycleError{Path: append(path, tpl.Name)}
	}
	if b.cfg.maxDepth > 0 && len(stack) >= b.cfg.maxDepth {
		return nil, fmt.Errorf("%w: %d reached at template %q", ErrMaxDepth, b.cfg.maxDepth, tpl.Name)
	}
	ns := make(NamespaceMap, len(tpl.Imports)+1)
	if len(tpl.Macros) > 0 {
		ns[SelfNamespace] = Namespace{Origin: tpl.Name, Macros: tpl.Macros}
	}
	b.active[tpl.Name] = len(stack)
	return append(stack, &frame{tpl: tpl, ns: ns}), nil
}

func (b *builder) resolve(name, referrer string, rel Relation) (*Template, error) {
	if tpl, ok := b.resolved[name]; ok {
		return tpl, nil
	}
	tpl, err := b.reg.GetTemplate(b.ctx, name)
	if err == nil && tpl == nil {
		err = fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err != nil {
		return nil, &UnresolvedTemplateError{Name: name, Referrer: referrer, Relation: rel, Err: err}
	}
	b.resolved[name] = tpl
	return tpl, nil
}

// Lookup resolves macro in namespace as seen from template. It returns the
// origin template that declares the macro, which is where calls made from
// the macro's body must be resolved.
func (c *MacroCollection) Lookup(template, namespace, macro string) (string, *MacroDefinition, error) {
	ns, ok := c.macros[template][namespace]
	if !ok {
		return "", nil, &LookupError{Template: template, Namespace: namespace, Err: ErrNamespaceNotFound}
	}
	def, ok := ns.Macros[macro]
	if !ok {
		return "", nil, &LookupError{Template: template, Namespace: namespace, Macro: macro, Err: ErrMacroNotFound}
	}
	return ns.Origin, def, nil
}

// Resolve is Lookup for a qualified "namespace::macro" call.
func (c *MacroCollection) Resolve(template, call string) (string, *MacroDefinition, error) {
	namespace, macro, err := SplitCall(call)
	if err != nil {
		return "", nil, err
	}
	return c.Lookup(template, namespace, macro)
}

// Root returns the name of the template the collection was built from.
func (c *MacroCollection) Root() string { return c.root }

// Len returns the number of collected templates.
func (c *MacroCollection) Len() int { return len(c.macros) }

// Has reports whether template has an entry in the collection.
func (c *MacroCollection) Has(template string) bool {
	_, ok := c.macros[template]
	return ok
}

// Templates returns the collected template names, sorted.
func (c *MacroCollection) Templates() []string {
	return slices.Sorted(maps.Keys(c.macros))
}

// Namespaces returns a copy of template's namespace map. The Namespace values
// still reference the origin templates' macro sets.
func (c *MacroCollection) Namespaces(template string) (NamespaceMap, bool) {
	ns, ok := c.macros[template]
	if !ok {
		return nil, false
	}
	return maps.Clone(ns), true
}
