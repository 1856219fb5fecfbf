package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/autoinstall/internal/hydrate"
	"github.com/phobologic/autoinstall/internal/inventory"
	"github.com/phobologic/autoinstall/internal/manifest"
	"github.com/phobologic/autoinstall/internal/model"
)

// newCleanCmd implements `autoinstall clean`, which removes generated
// manifests and their lockfiles ahead of a package manager install.
// Hand-written package.json files are left alone.
func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [project-root]",
		Short: "Remove generated package.json and package-lock.json files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			manifestPath, _ := cmd.Flags().GetString("manifest")
			inv, err := inventory.Load(root, manifestPath)
			if err != nil {
				return err
			}

			removed := 0
			for _, d := range inv.Dirs {
				if !hydrate.Supported(d) {
					continue
				}
				data, err := os.ReadFile(filepath.Join(d.Path, manifest.FileName))
				if err != nil || !manifest.IsGenerated(data) {
					continue
				}
				m := model.InstallManifest{Dir: d.Path, File: manifest.FileName, Remove: manifest.RemoveFiles}
				if err := manifest.Clean(m); err != nil {
					return &hydrate.IOError{Dir: d.Path, Op: "clean", Err: err}
				}
				logger.Debug("cleaned", "dir", d.Path)
				removed++
			}
			logger.Infof("Cleaned %d function directories", removed)
			return nil
		},
	}
}
