package git

import "log/slog"

// Option configures Fetcher.
type Option func(*Fetcher)

// WithBranch sets the branch to clone. Default is "main".
func WithBranch(branch string) Option {
	return func(g *Fetcher) {
		g.branch = branch
	}
}

// WithDir sets the subdirectory that holds manifests (e.g. "macros"). Default is the repo root.
func WithDir(dir string) Option {
	return func(g *Fetcher) {
		g.dir = dir
	}
}

// WithDepth sets the clone depth. Default is 1; 0 clones full history.
func WithDepth(depth int) Option {
	return func(g *Fetcher) {
		g.depth = depth
	}
}

// WithAuth sets an HTTPS token, sent as BasicAuth with username "x-access-token".
func WithAuth(token string) Option {
	return func(g *Fetcher) {
		g.authToken = token
	}
}

// WithCloneDir clones into dir instead of a temp directory and reuses an
// existing clone found there. Close leaves dir in place.
func WithCloneDir(dir string) Option {
	return func(g *Fetcher) {
		g.cloneDir = dir
	}
}

// WithLogger sets the logger for pull warnings. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Fetcher) {
		if l != nil {
			g.logger = l
		}
	}
}
