// Package manifest builds and persists generated per-function package.json
// files.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/phobologic/autoinstall/internal/model"
)

const (
	// FileName is the generated manifest written into each function directory.
	FileName = "package.json"

	// Description marks the file as a generated debugging artifact.
	Description = "This file was generated by autoinstall, and placed in node_modules to aid in debugging; " +
		"if you found this file in your function directory, you can safely remove it (and package-lock.json)"

	dateFormat = "2006-01-02T15:04:05.000Z07:00"
)

// RemoveFiles must be deleted from a function directory before a package
// manager install runs against the generated manifest.
var RemoveFiles = []string{"package.json", "package-lock.json"}

// document fixes the serialized field order.
type document struct {
	Arc          string            `json:"_arc"`
	Module       string            `json:"_module"`
	Date         string            `json:"_date"`
	Parsed       []string          `json:"_parsed"`
	Description  string            `json:"description"`
	Dependencies map[string]string `json:"dependencies"`
}

// Build renders the manifest for dir. parsed lists the dir-relative files
// that were scanned; deps must already be deduplicated and sorted.
func Build(dir string, parsed, deps []string, versions model.VersionMap, now time.Time) (model.InstallManifest, error) {
	dependencies := make(map[string]string, len(deps))
	for _, name := range deps {
		dependencies[name] = versions.Lookup(name)
	}
	if parsed == nil {
		parsed = []string{}
	}

	data, err := encode(document{
		Arc:          "autoinstall",
		Module:       "hydrate",
		Date:         now.UTC().Format(dateFormat),
		Parsed:       parsed,
		Description:  Description,
		Dependencies: dependencies,
	})
	if err != nil {
		return model.InstallManifest{}, fmt.Errorf("encoding manifest for %s: %w", dir, err)
	}

	return model.InstallManifest{
		Dir:          dir,
		File:         FileName,
		Data:         data,
		Remove:       append([]string(nil), RemoveFiles...),
		Parsed:       parsed,
		Dependencies: deps,
		Versions:     dependencies,
	}, nil
}

// encode is two-space indented JSON without HTML escaping, so version
// ranges such as ">=1.2" survive verbatim.
func encode(doc document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Commit writes every manifest to its directory, in order.
func Commit(manifests []model.InstallManifest) error {
	for _, m := range manifests {
		path := filepath.Join(m.Dir, m.File)
		if err := os.WriteFile(path, m.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// Clean deletes m.Remove from m.Dir. Files that do not exist are skipped.
func Clean(m model.InstallManifest) error {
	for _, name := range m.Remove {
		path := filepath.Join(m.Dir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

// IsGenerated reports whether data is a manifest produced by Build.
func IsGenerated(data []byte) bool {
	var head struct {
		Arc    string `json:"_arc"`
		Module string `json:"_module"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return false
	}
	return head.Arc == "autoinstall" && head.Module == "hydrate"
}
