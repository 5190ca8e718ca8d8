package vm

import (
	"io"

	"github.com/chazu/sprat/compiler"
)

// CheckDefinitions parses src and evaluates only its class, interface and
// extend forms at top level, collecting every error instead of stopping at
// the first. Nothing else runs, so the check has no side effects beyond
// this VM. After an import the remaining definitions may refer to names
// this VM cannot see, so only syntax is checked from there on.
func (vm *VM) CheckDefinitions(name, src string) []error {
	source := &Source{Name: name, Text: src}
	prev := vm.source
	vm.source = source
	defer func() { vm.source = prev }()

	var errs []error
	resolved := true
	p := compiler.NewParser(src)
	for {
		node, err := p.Next()
		if err == io.EOF {
			return errs
		}
		if err != nil {
			return append(errs, asUnwind(err).WithContext(name, src))
		}
		switch n := node.(type) {
		case *compiler.ImportDecl:
			resolved = false
		case *compiler.ClassDef:
			if !resolved {
				continue
			}
			if _, err := vm.evalClassDef(vm.top, n); err != nil {
				errs = append(errs, asUnwind(err).WithSpan(n.NameSpan).WithContext(name, src))
			}
		}
	}
}
