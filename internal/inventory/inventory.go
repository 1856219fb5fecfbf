// Package inventory loads the project manifest and groups declared functions
// by source directory.
package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/phobologic/autoinstall/internal/model"
)

// DefaultRuntime applies when neither the function nor the project names one.
const DefaultRuntime = "nodejs20.x"

// ManifestNames are the project manifest file names, in lookup order.
var ManifestNames = []string{"app.toml", "app.json"}

// ErrNoManifest is returned when no project manifest exists under the root.
var ErrNoManifest = errors.New("no project manifest found")

// Inventory is the set of function directories declared by a project.
type Inventory struct {
	Root     string
	Name     string
	Manifest string // Path of the file it was loaded from
	Dirs     []model.FunctionDir
}

type projectFile struct {
	Project struct {
		Name    string `toml:"name" json:"name"`
		Runtime string `toml:"runtime" json:"runtime"`
	} `toml:"project" json:"project"`
	Functions []functionEntry `toml:"functions" json:"functions"`
}

type functionEntry struct {
	Name    string `toml:"name" json:"name"`
	Src     string `toml:"src" json:"src"`
	Runtime string `toml:"runtime" json:"runtime"`
}

// Load finds and reads the project manifest under root. If path is
// non-empty it is used instead of the default names.
func Load(root, path string) (*Inventory, error) {
	if path == "" {
		for _, name := range ManifestNames {
			candidate := filepath.Join(root, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil, fmt.Errorf("%s: %w (looked for %s)", root, ErrNoManifest, strings.Join(ManifestNames, ", "))
		}
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	var pf projectFile
	if err := decode(path, &pf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dirs, err := group(root, pf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Inventory{
		Root:     root,
		Name:     pf.Project.Name,
		Manifest: path,
		Dirs:     dirs,
	}, nil
}

func decode(path string, v *projectFile) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.DecodeFile(path, v)
		return err
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported manifest format %q", filepath.Ext(path))
	}
}

// group folds functions into directories in order of first appearance.
// Functions sharing a src directory become one multi-tenant entry.
func group(root string, pf projectFile) ([]model.FunctionDir, error) {
	projectRuntime := pf.Project.Runtime
	if projectRuntime == "" {
		projectRuntime = DefaultRuntime
	}

	index := make(map[string]int)
	var dirs []model.FunctionDir

	for i, fn := range pf.Functions {
		if fn.Name == "" {
			return nil, fmt.Errorf("function %d: missing name", i+1)
		}
		if fn.Src == "" {
			return nil, fmt.Errorf("function %q: missing src", fn.Name)
		}
		runtime := fn.Runtime
		if runtime == "" {
			runtime = projectRuntime
		}

		src := fn.Src
		if !filepath.IsAbs(src) {
			src = filepath.Join(root, src)
		}
		src = filepath.Clean(src)

		f := model.Function{Name: fn.Name, Runtime: runtime}
		if at, ok := index[src]; ok {
			dirs[at].Functions = append(dirs[at].Functions, f)
			continue
		}
		index[src] = len(dirs)
		dirs = append(dirs, model.FunctionDir{Path: src, Functions: []model.Function{f}})
	}

	return dirs, nil
}

// Lookup returns the directory entry for path.
func (inv *Inventory) Lookup(path string) (model.FunctionDir, bool) {
	path = filepath.Clean(path)
	for _, d := range inv.Dirs {
		if d.Path == path {
			return d, true
		}
	}
	return model.FunctionDir{}, false
}
