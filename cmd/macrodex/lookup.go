package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skosovsky/macrodex"
)

type lookupReport struct {
	Template  string        `json:"template" yaml:"template"`
	Namespace string        `json:"namespace" yaml:"namespace"`
	Macro     string        `json:"macro" yaml:"macro"`
	Origin    string        `json:"origin" yaml:"origin"`
	Signature string        `json:"signature" yaml:"signature"`
	Params    []paramReport `json:"params" yaml:"params"`
	Body      string        `json:"body" yaml:"body"`
}

type paramReport struct {
	Name    string  `json:"name" yaml:"name"`
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
}

func newLookupCmd(flags *globalFlags) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "lookup ROOT NAMESPACE::MACRO",
		Short: "Resolve a qualified macro call and print where it is defined",
		Example: `  macrodex lookup page.html forms::input --dir ./templates
  macrodex lookup page.html w::button --in forms.html   # call made inside forms.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, call := args[0], args[1]
			ns, macro, err := macrodex.SplitCall(call)
			if err != nil {
				return err
			}
			coll, err := flags.build(cmd, root)
			if err != nil {
				return err
			}
			template := root
			if in != "" {
				template = in
			}
			origin, def, err := coll.Lookup(template, ns, macro)
			if err != nil {
				return err
			}
			rep := newLookupReport(template, ns, origin, def)
			return render(cmd.OutOrStdout(), flags.format, rep, printLookup)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "template the call is made from (default ROOT)")
	return cmd
}

func newLookupReport(template, ns, origin string, def *macrodex.MacroDefinition) lookupReport {
	rep := lookupReport{
		Template:  template,
		Namespace: ns,
		Macro:     def.Name,
		Origin:    origin,
		Signature: signature(def),
		Params:    make([]paramReport, 0, len(def.Params)),
		Body:      def.Body,
	}
	for _, p := range def.Params {
		pr := paramReport{Name: p.Name}
		if p.HasDefault {
			pr.Default = &p.Default
		}
		rep.Params = append(rep.Params, pr)
	}
	return rep
}

// signature renders name(a, b="x").
func signature(def *macrodex.MacroDefinition) string {
	var sb strings.Builder
	sb.WriteString(def.Name)
	sb.WriteByte('(')
	for i, p := range def.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		if p.HasDefault {
			sb.WriteByte('=')
			sb.WriteString(strconv.Quote(p.Default))
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func printLookup(w io.Writer, rep lookupReport) error {
	_, err := fmt.Fprintf(w, "%s::%s (in %s)\n  origin:    %s\n  signature: %s\n",
		rep.Namespace, rep.Macro, rep.Template, rep.Origin, rep.Signature)
	return err
}
