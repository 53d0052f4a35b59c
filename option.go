package macrodex

import "log/slog"

// TemplateOption configures a Template (functional options pattern).
type TemplateOption func(*Template)

// WithMacros sets the macros declared directly in the template.
// A definition with an empty Name takes its map key.
func WithMacros(macros MacroSet) TemplateOption {
	return func(t *Template) {
		t.Macros = macros
	}
}

// WithImports sets the macro imports in declaration order.
func WithImports(imports ...MacroImport) TemplateOption {
	return func(t *Template) {
		t.Imports = imports
	}
}

// WithParents sets the parent template names in declaration order.
func WithParents(parents ...string) TemplateOption {
	return func(t *Template) {
		t.Parents = parents
	}
}

// CyclePolicy controls what Build does on an import cycle: a chain of macro
// imports leading back to a template whose own imports are still being
// collected. Cycles that pass through a parent edge always terminate and are
// not subject to the policy.
type CyclePolicy uint8

const (
	// CyclePolicyError fails the build with a *CycleError.
	CyclePolicyError CyclePolicy = iota
	// CyclePolicyAllow skips the in-progress template; its entry is inserted
	// when its own imports finish, so the collection is still complete.
	CyclePolicyAllow
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger   *slog.Logger
	cycles   CyclePolicy
	maxDepth int
}

// WithLogger sets the logger for debug output during Build. Default discards.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCyclePolicy sets how Build treats import cycles. Default is CyclePolicyError.
func WithCyclePolicy(p CyclePolicy) BuildOption {
	return func(c *buildConfig) {
		c.cycles = p
	}
}

// WithMaxDepth bounds the depth of the template walk. n <= 0 means unbounded (default).
func WithMaxDepth(n int) BuildOption {
	return func(c *buildConfig) {
		c.maxDepth = n
	}
}
