package macrodex

import "context"

// SelfNamespace is the reserved namespace for a template's own macros.
const SelfNamespace = "self"

// MacroParam is one macro parameter with an optional default expression.
type MacroParam struct {
	Name       string
	Default    string
	HasDefault bool
}

// MacroDefinition is a macro declared inside a template. The collection only
// references definitions; it never inspects or modifies them.
type MacroDefinition struct {
	Name   string
	Params []MacroParam
	Body   string
}

// MacroSet maps macro name to definition for the macros declared directly in one template.
type MacroSet map[string]*MacroDefinition

// MacroImport declares that a template imports File's macros under Namespace.
type MacroImport struct {
	File      string
	Namespace string
}

// Registry returns parsed templates by name.
// Implementations must return ErrTemplateNotFound (wrapped) for unknown names
// and should return the same *Template for repeated lookups of one name.
type Registry interface {
	GetTemplate(ctx context.Context, name string) (*Template, error)
}
