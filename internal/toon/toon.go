// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phobologic/autoinstall/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a hydration Plan into TOON format.
func Encode(p *model.Plan) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(filepath.Base(p.Root))))
	parts = append(parts, fmt.Sprintf("scanned_dirs: %d", p.Stats.Dirs))
	parts = append(parts, fmt.Sprintf("inspected_files: %d", p.Stats.Files))
	parts = append(parts, fmt.Sprintf("total_dependencies: %d", p.Stats.Dependencies))

	var manifestRows [][]string
	var depRows [][]string
	for i := range p.Manifests {
		m := &p.Manifests[i]
		dir := relDir(p.Root, m.Dir)
		manifestRows = append(manifestRows, []string{
			dir,
			m.File,
			fmt.Sprintf("%d", len(m.Parsed)),
			strings.Join(m.Remove, " "),
		})
		for _, name := range m.Dependencies {
			version := m.Versions[name]
			if version == "" {
				version = model.LatestVersion
			}
			depRows = append(depRows, []string{dir, name, version})
		}
	}
	parts = append(parts, formatTabular("manifests", []string{"dir", "file", "parsed", "remove"}, manifestRows))
	parts = append(parts, formatTabular("dependencies", []string{"dir", "name", "version"}, depRows))

	if len(p.Skipped) > 0 {
		var skipRows [][]string
		for i := range p.Skipped {
			d := &p.Skipped[i]
			skipRows = append(skipRows, []string{relDir(p.Root, d.Path), d.Runtime()})
		}
		parts = append(parts, formatTabular("skipped", []string{"dir", "runtime"}, skipRows))
	}

	return strings.Join(parts, "\n")
}

func relDir(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
