package vm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/sprat/compiler"
)

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

// SourceExt is the file extension of Sprat source files.
const SourceExt = ".spr"

// ErrModuleNotFound is returned by loaders that have no such module.
var ErrModuleNotFound = errors.New("module not found")

// ModuleLoader resolves a dotted module path to its source.
type ModuleLoader interface {
	Load(path string) (*Source, error)
}

// DirLoader finds module a.b at a/b.spr under the first root that has it.
type DirLoader struct {
	Roots []string
}

// Load implements ModuleLoader.
func (l DirLoader) Load(path string) (*Source, error) {
	rel := filepath.Join(strings.Split(path, ".")...) + SourceExt
	for _, root := range l.Roots {
		file := filepath.Join(root, rel)
		data, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		return &Source{Name: file, Text: string(data)}, nil
	}
	return nil, fmt.Errorf("%s: %w", path, ErrModuleNotFound)
}

// MapLoader serves modules from memory.
type MapLoader map[string]string

// Load implements ModuleLoader.
func (l MapLoader) Load(path string) (*Source, error) {
	text, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrModuleNotFound)
	}
	return &Source{Name: path + SourceExt, Text: text}, nil
}

// loadModule evaluates a module once in its own top-level scope and caches
// the scope.
func (vm *VM) loadModule(path string) (*Env, error) {
	if env, ok := vm.modules[path]; ok {
		return env, nil
	}
	if vm.loading[path] {
		return nil, errorf("Import cycle through %s", path)
	}
	if vm.loader == nil {
		return nil, errorf("Cannot import %s: no module loader", path)
	}
	src, err := vm.loader.Load(path)
	if err != nil {
		return nil, errorf("Cannot import %s: %v", path, err)
	}

	vm.loading[path] = true
	defer delete(vm.loading, path)

	log.Debugf("loading module %s from %s", path, src.Name)
	env := newTopLevel(vm.root)
	if _, err := vm.evalIn(env, src); err != nil {
		return nil, err
	}
	vm.modules[path] = env
	return env, nil
}

// importModule merges a module's bindings into env according to decl.
func (vm *VM) importModule(env *Env, decl *compiler.ImportDecl) error {
	mod, err := vm.loadModule(decl.Module)
	if err != nil {
		return err
	}
	return env.ImportFrom(mod, decl.Mode, decl.Name, decl.Prefix())
}
