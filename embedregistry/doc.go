// Package embedregistry provides a template registry backed by fs.FS (e.g. embed.FS).
// All YAML manifests under a root are parsed at construction and keyed by the
// name each manifest declares. Use New to create a Registry.
package embedregistry
