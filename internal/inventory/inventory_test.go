package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTOML(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.toml", `[project]
name = "shop"
runtime = "nodejs18.x"

[[functions]]
name = "get-index"
src = "src/http/get-index"

[[functions]]
name = "post-cart"
src = "src/http/post-cart"
runtime = "python3.12"
`)

	inv, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if inv.Name != "shop" {
		t.Errorf("name = %q, want shop", inv.Name)
	}
	if len(inv.Dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %d", len(inv.Dirs))
	}
	if inv.Dirs[0].Path != filepath.Join(root, "src/http/get-index") {
		t.Errorf("dir 0 path = %q", inv.Dirs[0].Path)
	}
	if inv.Dirs[0].Runtime() != "nodejs18.x" {
		t.Errorf("dir 0 runtime = %q, want project default", inv.Dirs[0].Runtime())
	}
	if inv.Dirs[1].Runtime() != "python3.12" {
		t.Errorf("dir 1 runtime = %q, want python3.12", inv.Dirs[1].Runtime())
	}
	if inv.Dirs[0].MultiTenant() {
		t.Error("dir 0 should not be multi-tenant")
	}
}

func TestLoadJSONMultiTenant(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.json", `{
  "functions": [
    {"name": "a", "src": "src/shared", "runtime": "go1.x"},
    {"name": "b", "src": "src/solo"},
    {"name": "c", "src": "./src/shared/", "runtime": "nodejs20.x"}
  ]
}`)

	inv, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(inv.Dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %d", len(inv.Dirs))
	}
	shared := inv.Dirs[0]
	if !shared.MultiTenant() {
		t.Fatal("shared dir should be multi-tenant")
	}
	if len(shared.Functions) != 2 || shared.Functions[1].Name != "c" {
		t.Errorf("shared functions = %+v", shared.Functions)
	}
	// First variant decides.
	if shared.Runtime() != "go1.x" {
		t.Errorf("shared runtime = %q, want go1.x", shared.Runtime())
	}
	if inv.Dirs[1].Runtime() != DefaultRuntime {
		t.Errorf("solo runtime = %q, want %q", inv.Dirs[1].Runtime(), DefaultRuntime)
	}

	d, ok := inv.Lookup(filepath.Join(root, "src", "solo"))
	if !ok || d.Functions[0].Name != "b" {
		t.Errorf("Lookup solo = %+v, %v", d, ok)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "config/project.toml", `[[functions]]
name = "x"
src = "fn/x"
`)

	inv, err := Load(root, "config/project.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(inv.Dirs) != 1 {
		t.Fatalf("expected 1 dir, got %d", len(inv.Dirs))
	}
	if inv.Manifest != filepath.Join(root, "config/project.toml") {
		t.Errorf("manifest = %q", inv.Manifest)
	}
}

func TestLoadNoManifest(t *testing.T) {
	t.Parallel()
	_, err := Load(t.TempDir(), "")
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("err = %v, want ErrNoManifest", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad toml", "app.toml", "[[functions]\nname ="},
		{"bad json", "app.json", "{"},
		{"missing src", "app.toml", "[[functions]]\nname = \"x\"\n"},
		{"missing name", "app.toml", "[[functions]]\nsrc = \"x\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			writeFile(t, root, tt.file, tt.content)
			if _, err := Load(root, ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
