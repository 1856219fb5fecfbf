package hydrate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/phobologic/autoinstall/internal/discover"
	"github.com/phobologic/autoinstall/internal/manifest"
	"github.com/phobologic/autoinstall/internal/model"
	"github.com/phobologic/autoinstall/internal/scan"
)

const (
	// RuntimePrefix identifies the runtime family autoinstall supports.
	RuntimePrefix = "nodejs"

	// DefaultSDK is bundled with the Node.js runtime and never installed.
	DefaultSDK = "aws-sdk"

	installDir = "node_modules"
)

// removeAll is replaced in tests.
var removeAll = os.RemoveAll

// DirResult is the in-memory outcome of analyzing one directory.
type DirResult struct {
	Dir          string
	Skipped      bool     // Runtime not supported; nothing was inspected
	Files        []string // Dir-relative files that were scanned
	Dependencies []string
	References   []model.ModuleReference // Every external require, in scan order
	Failures     []model.ScanFailure
	Manifest     *model.InstallManifest // nil when there is nothing to install
}

// Analyzer computes the dependency set of one function directory.
type Analyzer struct {
	scanner *scan.Scanner
	sdk     string
	ignore  []string
	reset   bool // Remove installed modules before scanning
	now     func() time.Time
}

// NewAnalyzer returns an Analyzer. An empty sdk selects DefaultSDK; ignore
// holds extra gitignore-style patterns applied to every directory.
func NewAnalyzer(sdk string, ignore []string) (*Analyzer, error) {
	s, err := scan.New()
	if err != nil {
		return nil, err
	}
	if sdk == "" {
		sdk = DefaultSDK
	}
	return &Analyzer{scanner: s, sdk: sdk, ignore: ignore, reset: true, now: time.Now}, nil
}

// Supported reports whether dir is judged to run on the Node.js runtime.
func Supported(dir model.FunctionDir) bool {
	// Multi-tenant groups are judged by their first function only.
	return strings.HasPrefix(dir.Runtime(), RuntimePrefix)
}

// Analyze resets dir's install state, scans its sources and builds the
// manifest candidate. Parse failures are collected in the result; the
// returned error is reserved for filesystem failures that must abort the run.
func (a *Analyzer) Analyze(dir model.FunctionDir, versions model.VersionMap) (DirResult, error) {
	res := DirResult{Dir: dir.Path}

	if !Supported(dir) {
		res.Skipped = true
		return res, nil
	}

	if a.reset {
		if err := removeAll(filepath.Join(dir.Path, installDir)); err != nil {
			return res, &IOError{Dir: dir.Path, Op: "reset", Err: err}
		}
	}

	ig, err := discover.ForDir(dir.Path, a.ignore...)
	if err != nil {
		return res, &IOError{Dir: dir.Path, Op: "ignore", Err: err}
	}
	files, err := discover.Files(dir.Path, ig)
	if err != nil {
		return res, &IOError{Dir: dir.Path, Op: "list", Err: err}
	}

	seen := make(map[string]struct{})
	for _, f := range files {
		res.Files = append(res.Files, f.Path)
		path := filepath.Join(dir.Path, filepath.FromSlash(f.Path))

		source, err := os.ReadFile(path)
		if err != nil {
			res.Failures = append(res.Failures, model.ScanFailure{File: path, Err: err})
			continue
		}

		refs, err := a.scanner.Scan(source, path)
		if err != nil {
			res.Failures = append(res.Failures, model.ScanFailure{File: path, Err: err})
			continue
		}
		for _, r := range refs {
			seen[r.Name] = struct{}{}
		}
		res.References = append(res.References, refs...)
	}

	delete(seen, a.sdk)
	for name := range seen {
		res.Dependencies = append(res.Dependencies, name)
	}
	sort.Strings(res.Dependencies)

	if len(res.Dependencies) == 0 {
		return res, nil
	}

	m, err := manifest.Build(dir.Path, res.Files, res.Dependencies, versions, a.now())
	if err != nil {
		return res, err
	}
	res.Manifest = &m
	return res, nil
}
