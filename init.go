package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/autoinstall/internal/hydrate"
	"github.com/phobologic/autoinstall/internal/inventory"
	"github.com/phobologic/autoinstall/internal/manifest"
)

const (
	sentinelStart = "# autoinstall:start"
	sentinelEnd   = "# autoinstall:end"
)

// newInitCmd implements `autoinstall init`, which writes (or updates) a block
// in the project .gitignore covering every generated file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [project-root]",
		Short: "Add generated manifests to the project .gitignore",
		Long: `Write an autoinstall section to the project .gitignore listing the generated
package.json, package-lock.json and node_modules of every Node.js function.
The section is wrapped in sentinel comments so it can be updated in place on
subsequent runs without touching surrounding content. Creates the file if it
does not exist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			manifestPath, _ := cmd.Flags().GetString("manifest")
			inv, err := inventory.Load(root, manifestPath)
			if err != nil {
				return err
			}

			section := generateSection(inv)

			if dryRun {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := filepath.Join(root, ".gitignore")
			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote autoinstall section to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the section without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped ignore block for inv.
func generateSection(inv *inventory.Inventory) string {
	var lines []string
	for _, d := range inv.Dirs {
		if !hydrate.Supported(d) {
			continue
		}
		rel, err := filepath.Rel(inv.Root, d.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		prefix := "/"
		if rel != "." {
			prefix += filepath.ToSlash(rel) + "/"
		}
		for _, name := range manifest.RemoveFiles {
			lines = append(lines, prefix+name)
		}
		lines = append(lines, prefix+"node_modules/")
	}

	body := "# Generated by autoinstall; do not edit between these markers."
	if len(lines) > 0 {
		body += "\n" + strings.Join(lines, "\n")
	}
	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
