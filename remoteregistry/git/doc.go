// Package git provides a remoteregistry.Fetcher backed by a Git repository.
//
// The repository is cloned on first use (shallow by default) and pulled before
// later reads. Manifests are looked up as {dir}/{name}.yaml then {dir}/{name}.yml,
// so template "forms/page.html" maps to forms/page.html.yaml.
//
//	f, err := git.NewFetcher("https://example.com/macros.git", git.WithDir("macros"))
//	if err != nil { ... }
//	defer f.Close()
//	reg := remoteregistry.New(f)
//	root, err := reg.GetTemplate(ctx, "forms/page.html")
//	if err != nil { ... }
//	coll, err := macrodex.Build(ctx, reg, root)
package git
