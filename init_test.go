package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/autoinstall/internal/inventory"
	"github.com/phobologic/autoinstall/internal/model"
)

// TestApplySectionCreate verifies that applySection on empty content returns
// just the section with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if got != section+"\n" {
		t.Errorf("got %q", got)
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel block
// is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "node_modules/\n.env"
	section := sentinelStart + "\n/src/a/package.json\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasPrefix(got, existing+"\n") {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.HasSuffix(got, section+"\n") {
		t.Errorf("section should be appended:\n%s", got)
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "coverage/\n\n"
	after := "\n\n*.log\n"
	old := before + sentinelStart + "\n/src/old/package.json\n" + sentinelEnd + after

	section := sentinelStart + "\n/src/new/package.json\n" + sentinelEnd
	got := applySection(old, section)

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "/src/old/") {
		t.Error("old content should be replaced")
	}
	if !strings.Contains(got, "/src/new/package.json") {
		t.Error("new content missing")
	}
}

// TestInitWritesGitignore verifies that init lists generated files for
// Node.js functions only.
func TestInitWritesGitignore(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v\nstderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatalf(".gitignore not created: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		sentinelStart,
		"/src/http/get-index/package.json",
		"/src/http/get-index/package-lock.json",
		"/src/http/get-index/node_modules/",
		sentinelEnd,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
	if strings.Contains(content, "src/jobs/report") {
		t.Errorf("non-Node function should not be listed:\n%s", content)
	}

	// Running again keeps a single block.
	if err := run([]string{"init", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("second init: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, ".gitignore"))
	if n := strings.Count(string(data), sentinelStart); n != 1 {
		t.Errorf("expected 1 sentinel block, got %d", n)
	}
}

// TestInitDryRun verifies that --dry-run prints the section and does not
// create the file.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ".gitignore")); err == nil {
		t.Error("--dry-run should not create the file")
	}
	out := stdout.String()
	if !strings.Contains(out, sentinelStart) || !strings.Contains(out, sentinelEnd) {
		t.Errorf("dry-run output missing sentinels:\n%s", out)
	}
}

func TestGenerateSectionRootFunction(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	inv := &inventory.Inventory{
		Root: root,
		Dirs: []model.FunctionDir{
			{Path: root, Functions: []model.Function{{Name: "index", Runtime: "nodejs20.x"}}},
			{Path: filepath.Join(root, "src", "a"), Functions: []model.Function{{Name: "a", Runtime: "nodejs20.x"}}},
		},
	}

	got := generateSection(inv)
	for _, want := range []string{"\n/package.json\n", "\n/package-lock.json\n", "\n/node_modules/\n", "\n/src/a/package.json\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "/./") {
		t.Errorf("root function should not produce /./ paths:\n%s", got)
	}
}
