package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/skosovsky/macrodex"
)

type inspectReport struct {
	Root      string           `json:"root" yaml:"root"`
	Templates []templateReport `json:"templates" yaml:"templates"`
}

type templateReport struct {
	Name       string            `json:"name" yaml:"name"`
	Namespaces []namespaceReport `json:"namespaces" yaml:"namespaces"`
}

type namespaceReport struct {
	Name   string   `json:"name" yaml:"name"`
	Origin string   `json:"origin" yaml:"origin"`
	Macros []string `json:"macros" yaml:"macros"`
}

func newInspectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ROOT",
		Short: "Show every collected template and its macro namespaces",
		Example: `  macrodex inspect page.html --dir ./templates
  macrodex inspect page.html --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := flags.build(cmd, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), flags.format, newInspectReport(coll), printInspect)
		},
	}
}

func newInspectReport(coll *macrodex.MacroCollection) inspectReport {
	rep := inspectReport{Root: coll.Root()}
	for _, name := range coll.Templates() {
		nsMap, _ := coll.Namespaces(name)
		tr := templateReport{Name: name, Namespaces: []namespaceReport{}}
		for _, ns := range sortedNamespaces(nsMap) {
			entry := nsMap[ns]
			macros := make([]string, 0, len(entry.Macros))
			for m := range entry.Macros {
				macros = append(macros, m)
			}
			slices.Sort(macros)
			tr.Namespaces = append(tr.Namespaces, namespaceReport{Name: ns, Origin: entry.Origin, Macros: macros})
		}
		rep.Templates = append(rep.Templates, tr)
	}
	return rep
}

// sortedNamespaces puts "self" first, then the rest alphabetically.
func sortedNamespaces(m macrodex.NamespaceMap) []string {
	names := make([]string, 0, len(m))
	for ns := range m {
		names = append(names, ns)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == macrodex.SelfNamespace:
			return -1
		case b == macrodex.SelfNamespace:
			return 1
		case a < b:
			return -1
		default:
			return 1
		}
	})
	return names
}

func printInspect(w io.Writer, rep inspectReport) error {
	if _, err := fmt.Fprintf(w, "root: %s (%d templates)\n", rep.Root, len(rep.Templates)); err != nil {
		return err
	}
	for _, tr := range rep.Templates {
		if _, err := fmt.Fprintf(w, "\n%s\n", tr.Name); err != nil {
			return err
		}
		if len(tr.Namespaces) == 0 {
			if _, err := fmt.Fprintln(w, "  (no macros)"); err != nil {
				return err
			}
			continue
		}
		for _, ns := range tr.Namespaces {
			if _, err := fmt.Fprintf(w, "  %s -> %s: %v\n", ns.Name, ns.Origin, ns.Macros); err != nil {
				return err
			}
		}
	}
	return nil
}
