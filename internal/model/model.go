// Package model defines core data structures for autoinstall.
package model

import (
	"fmt"
	"time"
)

// LatestVersion is the version recorded for modules the ledger does not pin.
const LatestVersion = "latest"

// Function is one logical function configuration.
type Function struct {
	Name    string
	Runtime string
}

// FunctionDir is a function source directory. A directory with a single
// function is the common case; several functions sharing one directory form
// a multi-tenant group.
type FunctionDir struct {
	Path      string // Absolute
	Functions []Function
}

// MultiTenant reports whether more than one function lives in the directory.
func (d FunctionDir) MultiTenant() bool {
	return len(d.Functions) > 1
}

// Runtime returns the runtime of the first function in the directory.
//
// Multi-tenant groups are judged by their first variant only, so a group
// whose later variants declare a different runtime family is classified by
// whatever the first one says.
func (d FunctionDir) Runtime() string {
	if len(d.Functions) == 0 {
		return ""
	}
	return d.Functions[0].Runtime
}

// ModuleReference is a single statically resolved require() target.
type ModuleReference struct {
	Name      string // Package root, e.g. "@scope/pkg"
	Specifier string // Literal as written, e.g. "@scope/pkg/sub"
	File      string
	Line      int
}

// VersionMap maps package root names to pinned version strings.
type VersionMap map[string]string

// Lookup returns the pinned version for name, or LatestVersion.
func (m VersionMap) Lookup(name string) string {
	if v, ok := m[name]; ok && v != "" {
		return v
	}
	return LatestVersion
}

// ScanFailure records a file that could not be statically analyzed.
type ScanFailure struct {
	File string
	Err  error
}

func (f ScanFailure) String() string {
	return fmt.Sprintf("%s: %v", f.File, f.Err)
}

// InstallManifest is a generated package descriptor awaiting commit.
type InstallManifest struct {
	Dir          string
	File         string
	Data         []byte
	Remove       []string // Files to delete before a package manager install
	Parsed       []string
	Dependencies []string
	Versions     map[string]string
}

// Plan summarizes a run for display.
type Plan struct {
	Root      string
	Manifests []InstallManifest
	Skipped   []FunctionDir
	Stats     RunStats
}

// RunStats accumulates counters across one hydration run.
type RunStats struct {
	Dirs         int
	Files        int
	Dependencies int
	Elapsed      time.Duration
}

// Add folds o into s. Elapsed is not summed.
func (s *RunStats) Add(o RunStats) {
	s.Dirs += o.Dirs
	s.Files += o.Files
	s.Dependencies += o.Dependencies
}
