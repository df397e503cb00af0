package definition

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kbukum/lazylists/errors"
)

// Loader loads definitions by name. Include stages resolve through it.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load searches for {name}.yaml and {name}.yml in each directory and
// one level of subdirectories.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}

			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			if len(matches) > 0 {
				return Load(matches[0])
			}
		}
	}
	return nil, errors.InvalidDefinition(name, fmt.Sprintf("not found in %v", l.dirs))
}

// MapLoader serves definitions from memory.
type MapLoader map[string]*Definition

// Load returns the definition registered under name.
func (m MapLoader) Load(name string) (*Definition, error) {
	if def, ok := m[name]; ok {
		return def, nil
	}
	return nil, errors.InvalidDefinition(name, "not found")
}
