package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/skosovsky/macrodex/fileregistry"
)

type listReport struct {
	Dir       string   `json:"dir" yaml:"dir"`
	Templates []string `json:"templates" yaml:"templates"`
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the template names available in the manifest directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := fileregistry.New(flags.dir).List(cmd.Context())
			if err != nil {
				return err
			}
			if names == nil {
				names = []string{}
			}
			return render(cmd.OutOrStdout(), flags.format, listReport{Dir: flags.dir, Templates: names}, printList)
		},
	}
}

func printList(w io.Writer, rep listReport) error {
	for _, name := range rep.Templates {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}
