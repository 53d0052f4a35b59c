package macrodex

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for collection and lookup operations.
// All use prefix "macrodex:" for identification. Callers should use errors.Is/errors.As.
var (
	ErrTemplateNotFound  = errors.New("macrodex: template not found in registry")
	ErrNamespaceNotFound = errors.New("macrodex: macro namespace not found")
	ErrMacroNotFound     = errors.New("macrodex: macro not found")
	ErrCyclicImport      = errors.New("macrodex: cyclic macro import")
	ErrMaxDepth          = errors.New("macrodex: template graph exceeds maximum depth")
	ErrInvalidName       = errors.New("macrodex: invalid template name")
	ErrInvalidManifest   = errors.New("macrodex: manifest file is malformed")
	ErrInvalidCall       = errors.New("macrodex: invalid macro call (want namespace::macro)")
)

// Relation says how a template was referenced.
type Relation string

// Template references followed during Build.
const (
	RelationImport Relation = "import"
	RelationParent Relation = "parent"
)

// UnresolvedTemplateError reports a template name, referenced by an import or
// a parent chain, that the registry could not return.
// Use errors.Is(err, ErrTemplateNotFound) and errors.As(err, &unresolved) to inspect.
type UnresolvedTemplateError struct {
	Name     string
	Referrer string
	Relation Relation
	Err      error
}

// Error implements error.
func (e *UnresolvedTemplateError) Error() string {
	return fmt.Sprintf("macrodex: %s %q of template %q: %v", e.Relation, e.Name, e.Referrer, e.Err)
}

// Unwrap returns the registry error.
func (e *UnresolvedTemplateError) Unwrap() error { return e.Err }

// LookupError reports a failed Lookup. Macro is empty when the namespace itself
// is missing (Err is ErrNamespaceNotFound); otherwise Err is ErrMacroNotFound.
type LookupError struct {
	Template  string
	Namespace string
	Macro     string
	Err       error
}

// Error implements error.
func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrNamespaceNotFound) {
		return fmt.Sprintf("macrodex: macro namespace `%s` was not found in template `%s`; have you maybe forgotten to import it, or misspelled it?",
			e.Namespace, e.Template)
	}
	return fmt.Sprintf("macrodex: macro `%s::%s` not found in template `%s`", e.Namespace, e.Macro, e.Template)
}

// Unwrap returns ErrNamespaceNotFound or ErrMacroNotFound.
func (e *LookupError) Unwrap() error { return e.Err }

// CycleError reports a template that was reached again while its own macro
// imports were still being collected. Path runs from the first occurrence of
// the repeated template to the template that referenced it again.
type CycleError struct {
	Path []string
}

// Error implements error.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicImport, strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCyclicImport.
func (e *CycleError) Unwrap() error { return ErrCyclicImport }

// Compile-time checks that the error types implement error.
var (
	_ error = (*UnresolvedTemplateError)(nil)
	_ error = (*LookupError)(nil)
	_ error = (*CycleError)(nil)
)
