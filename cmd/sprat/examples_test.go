package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/sprat/vm"
)

const examplesDir = "../../examples"

// TestExamples runs every examples/*.spr and compares stdout with the
// .out file next to it.
func TestExamples(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(examplesDir, "*"+vm.SourceExt))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no example programs found")
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), vm.SourceExt)
		t.Run(name, func(t *testing.T) {
			want, err := os.ReadFile(strings.TrimSuffix(file, vm.SourceExt) + ".out")
			if err != nil {
				t.Fatalf("missing golden output: %v", err)
			}
			v := vm.NewVM()
			var out bytes.Buffer
			v.SetOutput(&out)
			if err := loadPath(v, file); err != nil {
				t.Fatalf("%s: %v", file, err)
			}
			if out.String() != string(want) {
				t.Errorf("output mismatch\n--- got ---\n%s--- want ---\n%s", out.String(), want)
			}
		})
	}
}

func TestExampleProject(t *testing.T) {
	dir := filepath.Join(examplesDir, "project")
	m, err := findManifest(dir)
	if err != nil {
		t.Fatalf("findManifest: %v", err)
	}
	o := &options{}
	v := vm.NewVM()
	var out bytes.Buffer
	v.SetOutput(&out)
	if err := applyManifest(v, o, m); err != nil {
		t.Fatalf("applyManifest: %v", err)
	}
	if o.entry != "Main.run:" {
		t.Errorf("entry = %q", o.entry)
	}

	prog := defaultProgram(m)
	if filepath.Base(prog) != "main.spr" {
		t.Fatalf("defaultProgram = %q", prog)
	}
	if err := loadPath(v, prog); err != nil {
		t.Fatalf("loading %s: %v", prog, err)
	}
	result, err := v.RunEntry("Main", "run:", []string{"a", "b"})
	if err != nil {
		t.Fatalf("RunEntry: %v", err)
	}
	if n, ok := result.AsInt(); !ok || n != 2 {
		t.Errorf("result = %s, want 2", v.Describe(result))
	}
	if out.String() != "25\n" {
		t.Errorf("output = %q, want %q", out.String(), "25\n")
	}
}
