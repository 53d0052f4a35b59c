package remoteregistry

import (
	"context"

	"github.com/skosovsky/macrodex"
)

// Fetcher fetches raw YAML manifest bytes by template name.
// Registry uses it to obtain manifest content; HTTP and Git are typical implementations.
//
// Return ErrNotFound when the template does not exist; Registry translates it to macrodex.ErrTemplateNotFound.
// Wrap other errors in ErrFetchFailed so callers can use errors.Is.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Lister is optional. When implemented by Fetcher, Registry.List uses it to return available names.
type Lister interface {
	ListNames(ctx context.Context) ([]string, error)
}

// ValidateName checks that name is safe for use in paths and cache keys.
// Delegates to macrodex.ValidateName so all registries share the same rules.
func ValidateName(name string) error {
	return macrodex.ValidateName(name)
}

// CandidatePaths returns manifest filename candidates in resolution order: name.yaml, name.yml.
// Call ValidateName(name) before using the result with filesystem paths.
func CandidatePaths(name string) []string {
	return []string{name + ".yaml", name + ".yml"}
}
