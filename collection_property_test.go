package macrodex

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// genGraph draws a random template graph. When acyclic is true every edge
// points from a lower to a higher index.
func genGraph(rt *rapid.T, acyclic bool) []*Template {
	n := rapid.IntRange(1, 12).Draw(rt, "n")
	name := func(i int) string { return fmt.Sprintf("t%d.html", i) }
	target := func(from int, label string) int {
		if acyclic {
			return rapid.IntRange(from+1, n-1).Draw(rt, label)
		}
		return rapid.IntRange(0, n-1).Draw(rt, label)
	}
	tpls := make([]*Template, 0, n)
	for i := range n {
		var opts []TemplateOption
		set := make(MacroSet)
		for m := range rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("macros%d", i)) {
			mn := fmt.Sprintf("m%d", m)
			set[mn] = &MacroDefinition{Name: mn}
		}
		opts = append(opts, WithMacros(set))
		if !acyclic || i < n-1 {
			var imports []MacroImport
			for k := range rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("imports%d", i)) {
				j := target(i, fmt.Sprintf("import%d_%d", i, k))
				imports = append(imports, MacroImport{File: name(j), Namespace: fmt.Sprintf("ns%d", k)})
			}
			var parents []string
			for k := range rapid.IntRange(0, 2).Draw(rt, fmt.Sprintf("parents%d", i)) {
				parents = append(parents, name(target(i, fmt.Sprintf("parent%d_%d", i, k))))
			}
			opts = append(opts, WithImports(imports...), WithParents(parents...))
		}
		tpl, err := NewTemplate(name(i), opts...)
		require.NoError(rt, err)
		tpls = append(tpls, tpl)
	}
	return tpls
}

// reachable returns every template name reachable from root by imports or parents.
func reachable(reg MapRegistry, root string) map[string]bool {
	seen := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		tpl := reg[queue[0]]
		queue = queue[1:]
		next := slices.Clone(tpl.Parents)
		for _, imp := range tpl.Imports {
			next = append(next, imp.File)
		}
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

type nsShape map[string]map[string][]string // template -> namespace -> origin + sorted macros

func shapeOf(c *MacroCollection) nsShape {
	out := make(nsShape)
	for _, tpl := range c.Templates() {
		ns, _ := c.Namespaces(tpl)
		out[tpl] = make(map[string][]string, len(ns))
		for alias, n := range ns {
			out[tpl][alias] = append([]string{n.Origin}, slices.Sorted(maps.Keys(n.Macros))...)
		}
	}
	return out
}

func TestBuild_Property_AcyclicGraphs(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		tpls := genGraph(rt, true)
		reg := newCountingRegistry(tpls...)
		root := tpls[0]

		coll, err := Build(context.Background(), reg, root)
		require.NoError(rt, err)

		want := reachable(reg.MapRegistry, root.Name)
		require.Equal(rt, slices.Sorted(maps.Keys(want)), coll.Templates())
		for name, calls := range reg.calls {
			require.Equal(rt, 1, calls, "template %s fetched more than once", name)
		}

		for _, name := range coll.Templates() {
			tpl := reg.MapRegistry[name]
			for _, imp := range tpl.Imports {
				dep := reg.MapRegistry[imp.File]
				for macro, def := range dep.Macros {
					origin, got, err := coll.Lookup(name, imp.Namespace, macro)
					require.NoError(rt, err)
					require.Equal(rt, imp.File, origin)
					require.Same(rt, def, got)
				}
			}
			ns, _ := coll.Namespaces(name)
			_, hasSelf := ns[SelfNamespace]
			require.Equal(rt, len(tpl.Macros) > 0, hasSelf)
			wantLen := len(tpl.Imports)
			if hasSelf {
				wantLen++
			}
			require.Len(rt, ns, wantLen)
		}

		again, err := Build(context.Background(), reg.MapRegistry, root)
		require.NoError(rt, err)
		require.Equal(rt, shapeOf(coll), shapeOf(again))
	})
}

func TestBuild_Property_CyclicGraphs(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		tpls := genGraph(rt, false)
		reg := NewMapRegistry(tpls...)
		root := tpls[0]

		coll, err := Build(context.Background(), reg, root, WithCyclePolicy(CyclePolicyAllow))
		require.NoError(rt, err)
		require.Equal(rt, slices.Sorted(maps.Keys(reachable(reg, root.Name))), coll.Templates())

		strict, err := Build(context.Background(), reg, root)
		if err != nil {
			require.ErrorIs(rt, err, ErrCyclicImport)
			return
		}
		require.Equal(rt, shapeOf(coll), shapeOf(strict))
	})
}
