package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/skosovsky/macrodex/remoteregistry"
)

var (
	_ remoteregistry.Fetcher = (*Fetcher)(nil)
	_ remoteregistry.Lister  = (*Fetcher)(nil)
)

// Fetcher reads macro manifests from a Git working tree.
// The repository is cloned on first use and pulled on later fetches.
type Fetcher struct {
	repoURL   string
	branch    string
	dir       string
	depth     int
	authToken string
	cloneDir  string
	logger    *slog.Logger

	mu       sync.Mutex
	localDir string
	repo     *git.Repository
}

// NewFetcher creates a Fetcher. Returns error if repoURL or the branch is empty.
func NewFetcher(repoURL string, opts ...Option) (*Fetcher, error) {
	if strings.TrimSpace(repoURL) == "" {
		return nil, errors.New("remoteregistry/git: repo URL must not be empty")
	}
	g := &Fetcher{
		repoURL: repoURL,
		branch:  "main",
		depth:   1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if strings.TrimSpace(g.branch) == "" {
		return nil, errors.New("remoteregistry/git: branch must not be empty")
	}
	return g, nil
}

// Fetch reads {dir}/{name}.yaml or {dir}/{name}.yml from the working tree.
func (g *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := remoteregistry.ValidateName(name); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ensureClone(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", remoteregistry.ErrFetchFailed, err)
	}
	baseDir := filepath.Clean(filepath.Join(g.localDir, g.dir))
	for _, rel := range remoteregistry.CandidatePaths(name) {
		path := filepath.Join(baseDir, filepath.FromSlash(rel))
		relPath, relErr := filepath.Rel(baseDir, path)
		if relErr != nil || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
			continue
		}
		data, err := os.ReadFile(path) // #nosec G304 -- path is checked against baseDir above
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%w: read %s: %w", remoteregistry.ErrFetchFailed, rel, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %q", remoteregistry.ErrNotFound, name)
}

// ListNames walks the working tree and returns every manifest as a template name
// (path relative to dir, slash-separated, without the .yaml/.yml suffix). Sorted.
func (g *Fetcher) ListNames(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ensureClone(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", remoteregistry.ErrFetchFailed, err)
	}
	baseDir := filepath.Clean(filepath.Join(g.localDir, g.dir))
	var names []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, ext := range []string{".yaml", ".yml"} {
			if name, ok := strings.CutSuffix(rel, ext); ok {
				if remoteregistry.ValidateName(name) == nil {
					names = append(names, name)
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk: %w", remoteregistry.ErrFetchFailed, err)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (g *Fetcher) ensureClone(ctx context.Context) error {
	if g.repo != nil {
		g.pull(ctx)
		return nil
	}
	if g.cloneDir != "" {
		if repo, err := git.PlainOpen(g.cloneDir); err == nil {
			g.localDir = g.cloneDir
			g.repo = repo
			g.pull(ctx)
			return nil
		}
	}
	dir := g.cloneDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "macrodex-git-*")
		if err != nil {
			return fmt.Errorf("temp dir: %w", err)
		}
		dir = tmp
	}
	cloneOpts := &git.CloneOptions{
		URL:           g.repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(g.branch),
		SingleBranch:  true,
		Auth:          g.auth(),
	}
	if g.depth > 0 {
		cloneOpts.Depth = g.depth
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, cloneOpts)
	if err != nil {
		if g.cloneDir == "" {
			_ = os.RemoveAll(dir)
		}
		return fmt.Errorf("clone: %w", err)
	}
	g.localDir = dir
	g.repo = repo
	return nil
}

// pull refreshes the working tree. Failures keep the existing clone and are only logged.
func (g *Fetcher) pull(ctx context.Context) {
	// file:// clones have nothing to pull from.
	if strings.HasPrefix(g.repoURL, "file://") {
		return
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		g.logger.WarnContext(ctx, "git worktree unavailable, using cached clone", "err", err)
		return
	}
	err = wt.PullContext(ctx, &git.PullOptions{Auth: g.auth()})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		g.logger.WarnContext(ctx, "git pull failed, using cached clone", "repo", g.repoURL, "err", err)
	}
}

func (g *Fetcher) auth() transport.AuthMethod {
	if g.authToken == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: g.authToken,
	}
}

// Close removes a temporary clone. A directory set with WithCloneDir is kept.
// Safe to call multiple times.
func (g *Fetcher) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.localDir == "" {
		return nil
	}
	dir := g.localDir
	g.localDir = ""
	g.repo = nil
	if dir == g.cloneDir {
		return nil
	}
	return os.RemoveAll(dir)
}
