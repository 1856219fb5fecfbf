package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phobologic/autoinstall/internal/model"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.UTC)

func TestBuildFormat(t *testing.T) {
	t.Parallel()

	m, err := Build("/fn", []string{"index.js", "lib/a.js"}, []string{"lodash", "uuid"},
		model.VersionMap{"lodash": "4.17.21", "react": ">=18"}, fixedTime)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := `{
  "_arc": "autoinstall",
  "_module": "hydrate",
  "_date": "2024-03-09T14:05:07.123Z",
  "_parsed": [
    "index.js",
    "lib/a.js"
  ],
  "description": "` + Description + `",
  "dependencies": {
    "lodash": "4.17.21",
    "uuid": "latest"
  }
}`
	if string(m.Data) != want {
		t.Errorf("data mismatch:\n got: %s\nwant: %s", m.Data, want)
	}
	if m.Dir != "/fn" || m.File != FileName {
		t.Errorf("target = %s/%s", m.Dir, m.File)
	}
	if len(m.Remove) != 2 || m.Remove[0] != "package.json" || m.Remove[1] != "package-lock.json" {
		t.Errorf("remove = %v", m.Remove)
	}
}

func TestBuildNoHTMLEscaping(t *testing.T) {
	t.Parallel()

	m, err := Build("/fn", nil, []string{"react"}, model.VersionMap{"react": ">=18 <19"}, fixedTime)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(string(m.Data), `"react": ">=18 <19"`) {
		t.Errorf("range escaped: %s", m.Data)
	}
	if !strings.Contains(string(m.Data), `"_parsed": []`) {
		t.Errorf("nil parsed should encode as []: %s", m.Data)
	}
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	deps := []string{"a", "b", "c", "d"}
	first, err := Build("/fn", []string{"x.js"}, deps, nil, fixedTime)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, err := Build("/fn", []string{"x.js"}, deps, nil, fixedTime)
		if err != nil {
			t.Fatal(err)
		}
		if string(again.Data) != string(first.Data) {
			t.Fatal("manifest output is not deterministic")
		}
	}

	var doc map[string]any
	if err := json.Unmarshal(first.Data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
}

func TestCommitAndClean(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := Build(dir, []string{"index.js"}, []string{"lodash"}, nil, fixedTime)
	if err != nil {
		t.Fatal(err)
	}

	if err := Commit([]model.InstallManifest{m}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if string(data) != string(m.Data) {
		t.Error("written data differs from manifest data")
	}

	if err := os.WriteFile(filepath.Join(dir, "package-lock.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Clean(m); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	for _, name := range RemoveFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s still present after Clean", name)
		}
	}
	// Second clean is a no-op.
	if err := Clean(m); err != nil {
		t.Errorf("second Clean: %v", err)
	}
}

func TestCommitMissingDir(t *testing.T) {
	t.Parallel()

	m := model.InstallManifest{Dir: filepath.Join(t.TempDir(), "gone"), File: FileName, Data: []byte("{}")}
	err := Commit([]model.InstallManifest{m})
	if err == nil {
		t.Fatal("expected error writing into missing directory")
	}
	if !strings.Contains(err.Error(), "gone") {
		t.Errorf("error should name the path: %v", err)
	}
}

func TestIsGenerated(t *testing.T) {
	t.Parallel()

	m, err := Build("/fn", nil, []string{"lodash"}, nil, fixedTime)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"generated", string(m.Data), true},
		{"user package", `{"name": "app", "dependencies": {"lodash": "^4"}}`, false},
		{"other arc module", `{"_arc": "autoinstall", "_module": "other"}`, false},
		{"not json", `nope`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsGenerated([]byte(tt.data)); got != tt.want {
				t.Errorf("IsGenerated = %v, want %v", got, tt.want)
			}
		})
	}
}
