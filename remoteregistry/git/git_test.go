package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/skosovsky/macrodex"
	"github.com/skosovsky/macrodex/remoteregistry"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runGit(t *testing.T, dir string, cmds ...string) {
	t.Helper()
	for _, c := range cmds {
		cmd := exec.Command("sh", "-c", c) // #nosec G204 -- test helper: c is from fixed list
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test", "GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "run %q: %s", c, out)
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))     // #nosec G301 -- test helper: dir is t.TempDir()
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644)) // #nosec G306 -- test helper: manifest content
	}
}

// initRepo creates a git repo in dir with one commit on main containing files.
func initRepo(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	writeFiles(t, dir, files)
	runGit(t, dir, "git init", "git branch -M main", "git add .", "git commit -m init")
}

// manifest returns a minimal manifest with one macro whose body is body.
func manifest(name, body string) string {
	return "name: " + name + "\nmacros:\n  m:\n    body: \"" + body + "\"\n"
}

func TestFetcher_Fetch_Success(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"forms.html.yaml": manifest("forms.html", "input")})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	data, err := g.Fetch(context.Background(), "forms.html")
	require.NoError(t, err)
	require.Contains(t, string(data), "name: forms.html")
	require.Contains(t, string(data), "input")
}

func TestFetcher_Fetch_YmlFallbackAndNested(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"lib/forms.html.yml": manifest("lib/forms.html", "nested")})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	data, err := g.Fetch(context.Background(), "lib/forms.html")
	require.NoError(t, err)
	require.Contains(t, string(data), "nested")
}

func TestFetcher_Fetch_NotFound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"a.yaml": manifest("a", "x")})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	_, err = g.Fetch(context.Background(), "missing")
	require.ErrorIs(t, err, remoteregistry.ErrNotFound)
}

func TestFetcher_Fetch_WithDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{
		"macros/base.html.yaml": manifest("base.html", "from subdir"),
		"base.html.yaml":        manifest("base.html", "from root"),
	})
	g, err := NewFetcher("file://"+dir, WithDir("macros"))
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	data, err := g.Fetch(context.Background(), "base.html")
	require.NoError(t, err)
	require.Contains(t, string(data), "from subdir")
}

func TestFetcher_Fetch_WithBranch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"main.html.yaml": manifest("main.html", "main")})
	writeFiles(t, dir, map[string]string{"dev.html.yaml": manifest("dev.html", "dev")})
	runGit(t, dir, "git checkout -b dev", "git add .", "git commit -m dev")

	g, err := NewFetcher("file://"+dir, WithBranch("dev"))
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	data, err := g.Fetch(context.Background(), "dev.html")
	require.NoError(t, err)
	require.Contains(t, string(data), "dev")
}

func TestFetcher_Fetch_InvalidNameRejected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"a.yaml": manifest("a", "x")})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	_, err = g.Fetch(context.Background(), "../../etc/passwd")
	require.ErrorIs(t, err, macrodex.ErrInvalidName)
}

func TestFetcher_Fetch_CloneFailure(t *testing.T) {
	t.Parallel()
	g, err := NewFetcher("file://" + filepath.Join(t.TempDir(), "no-such-repo"))
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	_, err = g.Fetch(context.Background(), "a")
	require.ErrorIs(t, err, remoteregistry.ErrFetchFailed)
}

func TestFetcher_FetchAfterClose(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"a.yaml": manifest("a", "x")})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, g.Close())

	// Close drops the clone; the next Fetch clones again.
	data, err := g.Fetch(context.Background(), "a")
	require.NoError(t, err)
	require.Contains(t, string(data), "name: a")
	require.NoError(t, g.Close())
}

func TestFetcher_Close_Idempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"a.yaml": manifest("a", "x")})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	_, _ = g.Fetch(context.Background(), "a")
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
}

func TestFetcher_Concurrent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"c.yaml": manifest("c", "concurrent")})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	type result struct {
		data []byte
		err  error
	}
	results := make(chan result, 20)
	for range 20 {
		go func() {
			data, err := g.Fetch(context.Background(), "c")
			results <- result{data: data, err: err}
		}()
	}
	for range 20 {
		r := <-results
		require.NoError(t, r.err)
		require.Contains(t, string(r.data), "concurrent")
	}
}

func TestNewFetcher_Validation(t *testing.T) {
	t.Parallel()
	_, err := NewFetcher("")
	require.Error(t, err)
	_, err = NewFetcher("   ")
	require.Error(t, err)
	_, err = NewFetcher("file:///tmp/x", WithBranch(" "))
	require.Error(t, err)
}

func TestFetcher_WithDepthAndAuth(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"d.yaml": manifest("d", "depth")})
	// Auth is ignored for file:// URLs.
	g, err := NewFetcher("file://"+dir, WithDepth(1), WithAuth("token"))
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	data, err := g.Fetch(context.Background(), "d")
	require.NoError(t, err)
	require.Contains(t, string(data), "depth")
}

func TestFetcher_WithCloneDir_KeptAndReused(t *testing.T) {
	t.Parallel()
	repoDir := t.TempDir()
	initRepo(t, repoDir, map[string]string{"keep.yaml": manifest("keep", "first")})
	cloneDir := filepath.Join(t.TempDir(), "clone")

	g1, err := NewFetcher("file://"+repoDir, WithCloneDir(cloneDir))
	require.NoError(t, err)
	_, err = g1.Fetch(context.Background(), "keep")
	require.NoError(t, err)
	require.NoError(t, g1.Close())

	_, err = os.Stat(filepath.Join(cloneDir, ".git"))
	require.NoError(t, err)

	g2, err := NewFetcher("file://"+repoDir, WithCloneDir(cloneDir))
	require.NoError(t, err)
	defer func() { _ = g2.Close() }()
	data, err := g2.Fetch(context.Background(), "keep")
	require.NoError(t, err)
	require.Contains(t, string(data), "first")
}

func TestFetcher_ListNames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{
		"a.html.yaml":     manifest("a.html", "A"),
		"b.html.yml":      manifest("b.html", "B"),
		"sub/c.html.yaml": manifest("sub/c.html", "C"),
		"README.md":       "not a manifest",
		"sub/notes.txt":   "skip",
		"dup.html.yaml":   manifest("dup.html", "1"),
		"dup.html.yml":    manifest("dup.html", "2"),
	})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	names, err := g.ListNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.html", "b.html", "dup.html", "sub/c.html"}, names)
}

func TestFetcher_BuildThroughRegistry(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{
		"base.html.yaml":  manifest("base.html", "base"),
		"forms.html.yaml": "name: forms.html\nmacros:\n  input:\n    params: [name, {name: type, default: text}]\n    body: \"<input>\"\n",
		"page.html.yaml":  "name: page.html\nextends: base.html\nimports:\n  - {file: forms.html, as: forms}\n",
	})
	g, err := NewFetcher("file://" + dir)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	reg := remoteregistry.New(g)
	root, err := reg.GetTemplate(context.Background(), "page.html")
	require.NoError(t, err)

	coll, err := macrodex.Build(context.Background(), reg, root)
	require.NoError(t, err)
	require.Equal(t, []string{"base.html", "forms.html", "page.html"}, coll.Templates())

	origin, def, err := coll.Lookup("page.html", "forms", "input")
	require.NoError(t, err)
	require.Equal(t, "forms.html", origin)
	require.Equal(t, "<input>", def.Body)
	require.Len(t, def.Params, 2)

	names, err := reg.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"base.html", "forms.html", "page.html"}, names)
}
