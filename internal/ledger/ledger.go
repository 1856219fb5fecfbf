// Package ledger builds the project-wide module version map from the root
// package.json and package-lock.json.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/autoinstall/internal/model"
)

const (
	PackageFile = "package.json"
	LockFile    = "package-lock.json"
)

type packageFile struct {
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// lockFile covers lockfileVersion 1 (dependencies) and 2/3 (packages).
type lockFile struct {
	LockfileVersion int `json:"lockfileVersion"`
	Packages        map[string]struct {
		Version string `json:"version"`
		Link    bool   `json:"link"`
	} `json:"packages"`
	Dependencies map[string]struct {
		Version string `json:"version"`
	} `json:"dependencies"`
}

// Load returns the version map for the project at root. Declared ranges from
// package.json are overridden by exact versions from package-lock.json.
// Missing files contribute nothing; malformed ones are errors.
func Load(root string) (model.VersionMap, error) {
	versions := make(model.VersionMap)

	var pkg packageFile
	found, err := readJSON(filepath.Join(root, PackageFile), &pkg)
	if err != nil {
		return nil, err
	}
	if found {
		// Later maps win: peer < dev < prod.
		for _, m := range []map[string]string{pkg.PeerDependencies, pkg.DevDependencies, pkg.Dependencies} {
			for name, v := range m {
				versions[name] = v
			}
		}
	}

	var lock lockFile
	found, err = readJSON(filepath.Join(root, LockFile), &lock)
	if err != nil {
		return nil, err
	}
	if found {
		for name, v := range lockVersions(lock) {
			versions[name] = v
		}
	}

	return versions, nil
}

func lockVersions(lock lockFile) map[string]string {
	out := make(map[string]string)

	if len(lock.Packages) > 0 {
		const prefix = "node_modules/"
		for key, p := range lock.Packages {
			if !strings.HasPrefix(key, prefix) || p.Link || p.Version == "" {
				continue
			}
			name := strings.TrimPrefix(key, prefix)
			// Nested installs are not top level.
			if strings.Contains(name, "/node_modules/") {
				continue
			}
			out[name] = p.Version
		}
		return out
	}

	for name, d := range lock.Dependencies {
		if d.Version != "" {
			out[name] = d.Version
		}
	}
	return out
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}
