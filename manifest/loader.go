package manifest

import (
	"fmt"
	"strings"

	"github.com/chazu/sprat/vm"
)

// Loader finds modules for a project. A path whose first segment names a
// dependency is looked up in that dependency's source dirs with the
// segment removed; any other path in the project's own source dirs.
type Loader struct {
	project vm.DirLoader
	deps    map[string]vm.DirLoader
}

// NewLoader builds the module loader for m and its resolved dependencies.
func NewLoader(m *Manifest, deps []ResolvedDep) *Loader {
	l := &Loader{
		project: vm.DirLoader{Roots: m.SourceDirPaths()},
		deps:    make(map[string]vm.DirLoader, len(deps)),
	}
	for _, d := range deps {
		l.deps[d.Name] = vm.DirLoader{Roots: d.SourceDirPaths()}
	}
	return l
}

// Load implements vm.ModuleLoader.
func (l *Loader) Load(path string) (*vm.Source, error) {
	if head, rest, ok := strings.Cut(path, "."); ok {
		if dep, ok := l.deps[head]; ok {
			src, err := dep.Load(rest)
			if err != nil {
				return nil, fmt.Errorf("dependency %s: %w", head, err)
			}
			return src, nil
		}
	}
	return l.project.Load(path)
}
