// Package macrodex builds a per-root index of template macros.
//
// A template may declare macros, import other templates' macros under a
// namespace alias, and inherit from parent templates. Build walks that graph
// once, starting from a root template, and records for every reachable
// template which namespaces it can call and which template physically
// declares the macros behind each namespace. Lookup then resolves
// namespace::macro calls in O(1) at render time.
//
// Parsed templates come from a Registry (see the fileregistry, embedregistry
// and remoteregistry packages). A MacroCollection references the templates'
// own macro sets rather than copying them; templates must not be mutated
// once they are handed to Build.
package macrodex
