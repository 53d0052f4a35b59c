// Package main provides the macrodex CLI for inspecting macro collections
// built from a directory of template manifests.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skosovsky/macrodex"
	"github.com/skosovsky/macrodex/fileregistry"
)

// Build info set via ldflags.
var version = "dev"

const envDir = "MACRODEX_DIR"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	dir         string
	format      string
	json        bool
	allowCycles bool
	maxDepth    int
	verbose     bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "macrodex",
		Short: "Index namespaced macros across template imports and inheritance",
		Long: `macrodex builds the macro collection for a root template: every template
reachable through macro imports and parent chains, with the namespaces
visible inside each of them.

Templates are read from YAML manifests in --dir (or $MACRODEX_DIR);
template "forms.html" lives in forms.html.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return flags.validate()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.dir, "dir", "d", os.Getenv(envDir), "manifest directory (default $"+envDir+" or .)")
	pf.StringVar(&flags.format, "format", "text", "output format: text, json or yaml")
	pf.BoolVar(&flags.json, "json", false, "shorthand for --format json")
	pf.BoolVar(&flags.allowCycles, "allow-cycles", false, "skip templates already being collected instead of failing")
	pf.IntVar(&flags.maxDepth, "max-depth", 0, "maximum template graph depth (0 = unbounded)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log each collected template to stderr")

	cmd.AddCommand(newInspectCmd(flags), newLookupCmd(flags), newListCmd(flags))
	return cmd
}

func (f *globalFlags) validate() error {
	if f.json {
		f.format = formatJSON
	}
	switch f.format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown --format %q (want text, json or yaml)", f.format)
	}
	if f.maxDepth < 0 {
		return errors.New("--max-depth must not be negative")
	}
	if f.dir == "" {
		f.dir = "."
	}
	return nil
}

func (f *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// build loads root from the manifest directory and collects its macros.
func (f *globalFlags) build(cmd *cobra.Command, root string) (*macrodex.MacroCollection, error) {
	ctx := cmd.Context()
	logger := f.logger(cmd.ErrOrStderr())
	reg := fileregistry.New(f.dir)
	tpl, err := reg.GetTemplate(ctx, root)
	if err != nil {
		return nil, err
	}
	opts := []macrodex.BuildOption{
		macrodex.WithLogger(logger),
		macrodex.WithMaxDepth(f.maxDepth),
	}
	if f.allowCycles {
		opts = append(opts, macrodex.WithCyclePolicy(macrodex.CyclePolicyAllow))
	}
	coll, err := macrodex.Build(ctx, reg, tpl, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("collection built", "root", root, "templates", coll.Len(), "dir", f.dir)
	return coll, nil
}
