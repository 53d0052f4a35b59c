// Package fileregistry provides a filesystem-based template registry that loads
// YAML manifests on demand (lazy) and caches them. Use New to create a Registry;
// GetTemplate resolves a template name to {dir}/{name}.yaml or {dir}/{name}.yml.
package fileregistry
