package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/chazu/sprat/vm"
)

func init() {
	color.NoColor = true
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// newProject creates a project directory with an empty manifest.
func newProject(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sprat.toml"), manifest)
	return dir
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-v", "-m", "Main.run:", "app.spr", "lib", "--", "a", "b"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !o.verbose || o.entry != "Main.run:" {
		t.Errorf("options = %+v", o)
	}
	if strings.Join(o.paths, ",") != "app.spr,lib" {
		t.Errorf("paths = %v", o.paths)
	}
	if strings.Join(o.args, ",") != "a,b" {
		t.Errorf("args = %v", o.args)
	}
}

func TestParseEntry(t *testing.T) {
	className, selector, err := parseEntry("Main.run:")
	if err != nil || className != "Main" || selector != "run:" {
		t.Errorf("parseEntry = %q, %q, %v", className, selector, err)
	}
	for _, bad := range []string{"Main", ".run", "Main."} {
		if _, _, err := parseEntry(bad); err == nil {
			t.Errorf("parseEntry(%q) should fail", bad)
		}
	}
}

func TestSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.spr"), "")
	writeFile(t, filepath.Join(dir, "a.spr"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "sub", "c.spr"), "")

	files, err := sourceFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.spr" || filepath.Base(files[1]) != "b.spr" {
		t.Errorf("sourceFiles(dir) = %v", files)
	}

	files, err = sourceFiles(dir + "/...")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("sourceFiles(dir/...) = %v", files)
	}

	if _, err := sourceFiles(filepath.Join(dir, "missing.spr")); err == nil {
		t.Error("sourceFiles on a missing path should fail")
	}
}

func TestLoadPath_StopsAtError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.spr"), "let first = 1.\n")
	writeFile(t, filepath.Join(dir, "b.spr"), "let second = nope.\n")
	writeFile(t, filepath.Join(dir, "c.spr"), "let third = 3.\n")

	v := vm.NewVM()
	err := loadPath(v, dir)
	if err == nil {
		t.Fatal("expected an error from b.spr")
	}
	if !strings.Contains(err.Error(), "b.spr:1:14: Unbound variable: nope") {
		t.Errorf("error = %v", err)
	}
	if _, ok := v.Get("first"); !ok {
		t.Error("a.spr should have been loaded")
	}
	if _, ok := v.Get("third"); ok {
		t.Error("c.spr should not have been loaded")
	}
}

func TestFormatError(t *testing.T) {
	v := vm.NewVM()
	_, err := v.EvalNamed("main.spr", "let x = 1.\nx := foo + 1.")
	if err == nil {
		t.Fatal("expected an error")
	}
	got := formatError(err)
	want := "main.spr:2:6: Unbound variable: foo\n   1 | let x = 1.\n   2 | x := foo + 1.\n     |      ^^^\n"
	if got != want {
		t.Errorf("formatError =\n%s\nwant\n%s", got, want)
	}
	if !isCaretLine("     |      ^^^") || isCaretLine("   2 | x ^ y") {
		t.Error("isCaretLine misclassifies lines")
	}
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"1 + 2", false},
		{"class Foo {", true},
		{"{ :x | x", true},
		{"1 + )", false},
		{":help", false},
	}
	for _, tt := range tests {
		if got := needsMoreInput(tt.src); got != tt.want {
			t.Errorf("needsMoreInput(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestREPLCommands(t *testing.T) {
	v := vm.NewVM()
	var out bytes.Buffer

	if handleREPLCommand(v, &out, ":help") {
		t.Error(":help should not exit")
	}
	if !strings.Contains(out.String(), ":load <file>") {
		t.Errorf(":help output = %q", out.String())
	}
	if !handleREPLCommand(v, &out, ":quit") {
		t.Error(":quit should exit")
	}

	file := filepath.Join(t.TempDir(), "defs.spr")
	writeFile(t, file, "class Gadget { }\nlet loaded = 7.\nloaded")
	out.Reset()
	handleREPLCommand(v, &out, ":load "+file)
	if out.String() != "7\n" {
		t.Errorf(":load output = %q", out.String())
	}

	out.Reset()
	handleREPLCommand(v, &out, ":classes")
	if !strings.Contains(out.String(), "class Gadget\n") || !strings.Contains(out.String(), "interface Object\n") {
		t.Errorf(":classes output = %q", out.String())
	}

	out.Reset()
	handleREPLCommand(v, &out, ":frob")
	if !strings.HasPrefix(out.String(), "Unknown command: :frob") {
		t.Errorf("unknown command output = %q", out.String())
	}
}

func TestEvalAndPrint(t *testing.T) {
	v := vm.NewVM()
	var out bytes.Buffer
	evalAndPrint(v, &out, replSource, "let greeting = 'hi'.")
	evalAndPrint(v, &out, replSource, "greeting size")
	evalAndPrint(v, &out, replSource, "greeting frob")
	lines := strings.Split(out.String(), "\n")
	if lines[1] != "2" {
		t.Errorf("output = %q", out.String())
	}
	if !strings.HasPrefix(lines[2], "<repl>:1:") || !strings.Contains(lines[2], "does not understand #frob") {
		t.Errorf("error line = %q", lines[2])
	}
}

func TestRun_EntryExitStatus(t *testing.T) {
	dir := newProject(t, "[project]\nname = \"app\"\n")
	prog := filepath.Join(dir, "app.spr")
	writeFile(t, prog, "class Main { classMethod: run: args { args size + 40 } }\n")

	code := run([]string{"-config", dir, "-m", "Main.run:", prog, "--", "a", "b"})
	if code != 42 {
		t.Errorf("exit status = %d, want 42", code)
	}
}

func TestRun_ManifestEntryAndModules(t *testing.T) {
	dir := newProject(t, "[source]\nentry = \"Main.run\"\n")
	writeFile(t, filepath.Join(dir, "src", "main.spr"),
		"import util.Helper.\nclass Main { classMethod: run { Helper answer } }\n")
	writeFile(t, filepath.Join(dir, "src", "util.spr"),
		"class Helper { classMethod: answer { 3 } }\n")

	if code := run([]string{"-config", filepath.Join(dir, "sprat.toml")}); code != 3 {
		t.Errorf("exit status = %d, want 3", code)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := newProject(t, "")
	bad := filepath.Join(dir, "bad.spr")
	writeFile(t, bad, "1 +")

	if code := run([]string{"-config", dir, bad}); code != 1 {
		t.Errorf("syntax error exit status = %d, want 1", code)
	}
	if code := run([]string{"-config", dir, "-m", "Nope.run", filepath.Join(dir, "missing.spr")}); code != 1 {
		t.Errorf("missing file exit status = %d, want 1", code)
	}
	if code := run([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("bad flag exit status = %d, want 2", code)
	}
	invalid := newProject(t, "[server]\nport = -1\n")
	if code := run([]string{"-config", invalid, bad}); code != 1 {
		t.Errorf("invalid manifest exit status = %d, want 1", code)
	}
}
