// autoinstall writes a package.json into each Node.js function directory
// listing the third-party modules its sources require.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phobologic/autoinstall/internal/hydrate"
	"github.com/phobologic/autoinstall/internal/inventory"
	"github.com/phobologic/autoinstall/internal/ledger"
	"github.com/phobologic/autoinstall/internal/model"
	"github.com/phobologic/autoinstall/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(context.Background())
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "autoinstall [project-root]",
		Short: "Generate per-function package.json files from require() calls",
		Long: `autoinstall scans the JavaScript sources of every Node.js function in a
project, resolves the modules they require against the root package.json and
package-lock.json, and writes a generated package.json into each function
directory. If any source file fails to parse, nothing is written.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(stderr, level)))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHydrate(cmd, args, stdout)
		},
	}
	root.SetVersionTemplate("autoinstall {{.Version}}\n")

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "report run statistics and enable debug logging")
	root.PersistentFlags().String("manifest", "", "project manifest path (default app.toml or app.json)")

	flags := root.Flags()
	flags.Bool("autoinstall", true, "determine dependencies from require() calls")
	flags.Bool("dry-run", false, "print the plan instead of writing manifests")
	flags.String("sdk", hydrate.DefaultSDK, "runtime-provided module to leave out of manifests")
	flags.StringSlice("ignore", nil, "extra gitignore-style patterns to skip (repeatable)")

	root.AddCommand(newInitCmd(stdout, stderr))
	root.AddCommand(newCleanCmd())

	return root
}

func runHydrate(cmd *cobra.Command, args []string, stdout io.Writer) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.Flags(), root)
	if err != nil {
		return err
	}
	if !cfg.Autoinstall {
		logger.Info("autoinstall disabled, skipping dependency analysis")
		return nil
	}

	inv, err := inventory.Load(root, cfg.Manifest)
	if err != nil {
		return err
	}
	logger.Debug("loaded inventory", "manifest", inv.Manifest, "dirs", len(inv.Dirs))
	for _, d := range inv.Dirs {
		if d.MultiTenant() {
			logger.Debug("multi-tenant directory", "dir", d.Path, "functions", len(d.Functions), "runtime", d.Runtime())
		}
	}

	versions, err := ledger.Load(root)
	if err != nil {
		return err
	}
	logger.Debug("loaded dependency ledger", "modules", len(versions))

	res, err := hydrate.Hydrate(ctx, inv.Dirs, versions, hydrate.Options{
		Verbose:  cfg.Verbose,
		DryRun:   cfg.DryRun,
		SDK:      cfg.SDK,
		Ignore:   cfg.Ignore,
		Reporter: logReporter{logger: logger},
	})
	if err != nil {
		return err
	}
	for _, dr := range res.Dirs {
		for _, ref := range dr.References {
			logger.Debug("require", "file", ref.File, "line", ref.Line, "specifier", ref.Specifier)
		}
	}

	if cfg.DryRun {
		_, _ = fmt.Fprintln(stdout, toon.Encode(plan(inv, res)))
		return nil
	}

	for _, m := range res.Manifests {
		logger.Debug("wrote manifest", "path", filepath.Join(m.Dir, m.File), "dependencies", len(m.Dependencies))
	}
	return nil
}

func plan(inv *inventory.Inventory, res hydrate.Result) *model.Plan {
	p := &model.Plan{Root: inv.Root, Manifests: res.Manifests, Stats: res.Stats}
	for _, dr := range res.Dirs {
		if !dr.Skipped {
			continue
		}
		if d, ok := inv.Lookup(dr.Dir); ok {
			p.Skipped = append(p.Skipped, d)
		}
	}
	return p
}

func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}
