// Package hydrate determines the third-party modules each function directory
// loads and writes one generated manifest per directory.
//
// A run has two phases. Every directory is analyzed in memory first; files
// are written only if no source file anywhere in the batch failed to parse.
package hydrate

import (
	"context"
	"fmt"
	"time"

	"github.com/phobologic/autoinstall/internal/manifest"
	"github.com/phobologic/autoinstall/internal/model"
)

// Options configures a hydration run.
type Options struct {
	Verbose  bool     // Report run statistics
	DryRun   bool     // Analyze only; never reset installs or write manifests
	SDK      string   // Runtime-provided module to exclude (default DefaultSDK)
	Ignore   []string // Extra ignore patterns
	Reporter Reporter
}

// Result is the outcome of a run. Manifests is empty whenever Failures is not.
type Result struct {
	Manifests []model.InstallManifest
	Failures  []model.ScanFailure
	Dirs      []DirResult
	Stats     model.RunStats
}

// Hydrate analyzes dirs in order and commits their manifests.
//
// If any file fails to parse, every failure is reported, no manifest is
// written, and a *FailureError is returned. A filesystem failure while
// resetting a directory is reported and returned as an *IOError before
// anything is written.
func Hydrate(ctx context.Context, dirs []model.FunctionDir, versions model.VersionMap, opts Options) (Result, error) {
	var res Result
	if len(dirs) == 0 {
		return res, nil
	}

	rep := opts.Reporter
	if rep == nil {
		rep = nopReporter{}
	}

	a, err := NewAnalyzer(opts.SDK, opts.Ignore)
	if err != nil {
		return res, err
	}
	a.reset = !opts.DryRun

	rep.Start("Finding dependencies")
	start := time.Now()

	var candidates []model.InstallManifest
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			rep.Cancel()
			return Result{}, err
		}

		dr, err := a.Analyze(dir, versions)
		if err != nil {
			rep.Error(fmt.Sprintf("Error autoinstalling dependencies in %s", dir.Path))
			return Result{}, err
		}

		res.Dirs = append(res.Dirs, dr)
		step := model.RunStats{Dirs: 1, Files: len(dr.Files)}
		res.Failures = append(res.Failures, dr.Failures...)
		if dr.Manifest != nil {
			step.Dependencies = len(dr.Dependencies)
			candidates = append(candidates, *dr.Manifest)
		}
		res.Stats.Add(step)
	}
	res.Stats.Elapsed = time.Since(start)

	if len(res.Failures) > 0 {
		rep.Error("JS parsing error(s), could not automatically determine dependencies")
		for _, f := range res.Failures {
			rep.Error(fmt.Sprintf("File: %s\n%v", f.File, f.Err))
		}
		return Result{Failures: res.Failures, Dirs: res.Dirs, Stats: res.Stats}, &FailureError{Failures: res.Failures}
	}

	if !opts.DryRun {
		if err := manifest.Commit(candidates); err != nil {
			rep.Error("Error writing generated manifests")
			return Result{Dirs: res.Dirs, Stats: res.Stats}, &IOError{Op: "commit", Err: err}
		}
	}
	res.Manifests = candidates
	res.Stats.Elapsed = time.Since(start)

	if opts.Verbose {
		rep.Status("Dependency analysis",
			fmt.Sprintf("Scanned %d project dirs", res.Stats.Dirs),
			fmt.Sprintf("Inspected %d project files", res.Stats.Files),
			fmt.Sprintf("Found a total of %d dependencies to install", res.Stats.Dependencies),
		)
		rep.Done(fmt.Sprintf("Completed in %dms", res.Stats.Elapsed.Milliseconds()))
	} else {
		rep.Cancel()
	}

	return res, nil
}
