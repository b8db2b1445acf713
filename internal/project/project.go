package project

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	utilsfs "github.com/flyfishxu/aurora/internal/utils/fs"
)

// ManifestName is the optional per-project configuration file.
const ManifestName = "aurora.yaml"

// Project is the aurora.yaml manifest. Every field is optional; an
// absent manifest yields the zero Project.
type Project struct {
	// Name of the project, informational.
	Name string `yaml:"name"`

	// SearchPaths are extra module search roots, relative to the
	// manifest's directory.
	SearchPaths []string `yaml:"search_paths"`

	// Output is the default path for --emit-llvm.
	Output string `yaml:"output"`

	// Root is the directory the manifest was found in (not part of
	// the file).
	Root string `yaml:"-"`
}

// Find walks up from the entry file's directory looking for an
// aurora.yaml manifest. A missing manifest is not an error.
func Find(entryFile string) (*Project, error) {
	dir, err := filepath.Abs(filepath.Dir(entryFile))
	if err != nil {
		return &Project{}, nil
	}

	for {
		candidate := filepath.Join(dir, ManifestName)
		if utilsfs.IsValidFile(candidate) {
			return load(candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return &Project{}, nil
		}
		dir = parent
	}
}

func load(path string) (*Project, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Project
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, err
	}

	p.Root = filepath.Dir(path)
	for i, sp := range p.SearchPaths {
		if !filepath.IsAbs(sp) {
			p.SearchPaths[i] = filepath.Join(p.Root, sp)
		}
	}
	return &p, nil
}
