// Sprat CLI - runs Sprat programs, the REPL and the language servers.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"github.com/chazu/sprat/manifest"
	"github.com/chazu/sprat/server"
	"github.com/chazu/sprat/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("sprat.cli")

func main() {
	os.Exit(run(os.Args[1:]))
}

// options holds the parsed command line merged with the project manifest.
type options struct {
	verbose     bool
	interactive bool
	entry       string
	serve       bool
	lsp         bool
	port        int
	config      string
	noColor     bool
	maxDepth    int
	paths       []string
	args        []string
}

func parseFlags(argv []string) (*options, error) {
	fs := flag.NewFlagSet("sprat", flag.ContinueOnError)
	o := &options{}
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	fs.BoolVar(&o.interactive, "i", false, "Start interactive REPL after loading")
	fs.StringVar(&o.entry, "m", "", "Entry point, Class.selector (e.g. 'Main.run:')")
	fs.BoolVar(&o.serve, "serve", false, "Start the Connect server (HTTP/JSON and protobuf)")
	fs.BoolVar(&o.lsp, "lsp", false, "Start the language server on stdio")
	fs.IntVar(&o.port, "port", 0, "Server port (used with -serve)")
	fs.StringVar(&o.config, "config", "", "Project directory or sprat.toml (default: search upwards)")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	fs.IntVar(&o.maxDepth, "max-depth", 0, "Maximum call depth")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: sprat [options] [files or dirs...] [-- program args...]\n\n")
		fmt.Fprintf(out, "Runs .spr files in order; with no files, starts the REPL.\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  sprat                          # Start REPL\n")
		fmt.Fprintf(out, "  sprat hello.spr                # Run a program\n")
		fmt.Fprintf(out, "  sprat app.spr -m Main.run: -- a b   # Run Main.run: with ['a', 'b']\n")
		fmt.Fprintf(out, "  sprat ./lib/... -serve -port 8080  # Load libs, serve on :8080\n")
		fmt.Fprintf(out, "  sprat -lsp                     # Language server for editors\n")
	}
	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	rest := fs.Args()
	for i, a := range rest {
		if a == "--" {
			o.paths, o.args = rest[:i], rest[i+1:]
			return o, nil
		}
	}
	o.paths = rest
	return o, nil
}

func run(argv []string) int {
	o, err := parseFlags(argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if o.noColor {
		color.NoColor = true
	}

	m, err := findManifest(o.config)
	if err != nil {
		printError(err)
		return 1
	}
	configureLogging(o, m)

	v := vm.NewVM()
	v.SetArguments(o.args)
	if err := applyManifest(v, o, m); err != nil {
		printError(err)
		return 1
	}

	paths := o.paths
	if len(paths) == 0 && m != nil && o.entry != "" {
		if prog := defaultProgram(m); prog != "" {
			paths = []string{prog}
		}
	}
	for _, p := range paths {
		if err := loadPath(v, p); err != nil {
			printError(err)
			return 1
		}
	}

	switch {
	case o.entry != "":
		className, selector, err := parseEntry(o.entry)
		if err != nil {
			printError(err)
			return 1
		}
		result, err := v.RunEntry(className, selector, o.args)
		if err != nil {
			printError(err)
			return 1
		}
		// An integer result is the exit status.
		if n, ok := result.AsInt(); ok {
			return int(n)
		}
		return 0

	case o.lsp:
		if err := server.NewLSP(v).Run(); err != nil {
			printError(err)
			return 1
		}
		return 0

	case o.serve:
		addr := fmt.Sprintf(":%d", o.port)
		srv := server.New(v)
		defer srv.Stop()
		if err := srv.ListenAndServe(addr); err != nil {
			printError(fmt.Errorf("server error: %w", err))
			return 1
		}
		return 0

	case o.interactive || len(paths) == 0:
		return runREPL(v)
	}
	return 0
}

// findManifest loads the manifest named by config, or searches upwards
// from the working directory when config is empty.
func findManifest(config string) (*manifest.Manifest, error) {
	if config == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return manifest.FindAndLoad(wd)
	}
	if filepath.Base(config) == manifest.FileName {
		config = filepath.Dir(config)
	}
	return manifest.Load(config)
}

func configureLogging(o *options, m *manifest.Manifest) {
	verbosity := 0
	var path *string
	if m != nil {
		verbosity = m.Runtime.LogVerbosity
		if m.Runtime.LogFile != "" {
			logFile := m.Runtime.LogFile
			if !filepath.IsAbs(logFile) {
				logFile = filepath.Join(m.Dir, logFile)
			}
			path = &logFile
		}
	}
	if o.verbose && verbosity < 2 {
		verbosity = 2
	}
	commonlog.Configure(verbosity, path)
}

// applyManifest merges manifest settings into the VM and the options.
// Flags win over the manifest.
func applyManifest(v *vm.VM, o *options, m *manifest.Manifest) error {
	if o.port == 0 {
		o.port = manifest.DefaultPort
	}
	if m == nil {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		v.SetLoader(vm.DirLoader{Roots: []string{wd}})
		v.SetMaxDepth(o.maxDepth)
		return nil
	}

	log.Infof("using project %s at %s", m.Project.Name, m.Dir)
	deps, err := manifest.NewResolver(m).Resolve()
	if err != nil {
		return err
	}
	v.SetLoader(manifest.NewLoader(m, deps))

	if o.maxDepth == 0 {
		o.maxDepth = m.Runtime.MaxDepth
	}
	v.SetMaxDepth(o.maxDepth)
	if o.entry == "" {
		o.entry = m.Source.Entry
	}
	if o.port == manifest.DefaultPort && m.Server.Port != 0 {
		o.port = m.Server.Port
	}
	return nil
}

// defaultProgram is main.spr in the first source dir that has one.
func defaultProgram(m *manifest.Manifest) string {
	for _, dir := range m.SourceDirPaths() {
		p := filepath.Join(dir, "main"+vm.SourceExt)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// parseEntry splits "Class.selector".
func parseEntry(entry string) (className, selector string, err error) {
	className, selector, ok := strings.Cut(entry, ".")
	if !ok || className == "" || selector == "" {
		return "", "", fmt.Errorf("entry point %q must be Class.selector", entry)
	}
	return className, selector, nil
}

// loadPath evaluates a file, every .spr file in a directory, or with a
// trailing /... every .spr file below a directory.
func loadPath(v *vm.VM, path string) error {
	files, err := sourceFiles(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", f, err)
		}
		log.Debugf("loading %s", f)
		if _, err := v.EvalNamed(f, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func sourceFiles(path string) ([]string, error) {
	recursive := false
	if strings.HasSuffix(path, "/...") {
		recursive = true
		path = strings.TrimSuffix(path, "/...")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == vm.SourceExt {
				files = append(files, p)
			}
			return nil
		})
	} else {
		var entries []os.DirEntry
		entries, err = os.ReadDir(path)
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == vm.SourceExt {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, err
}
