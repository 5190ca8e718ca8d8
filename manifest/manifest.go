// Package manifest handles sprat.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project configuration file.
const FileName = "sprat.toml"

// Manifest represents a sprat.toml project configuration.
type Manifest struct {
	Project      Project               `toml:"project"`
	Source       Source                `toml:"source"`
	Runtime      Runtime               `toml:"runtime"`
	Server       Server                `toml:"server"`
	Dependencies map[string]Dependency `toml:"dependencies"`

	// Dir is the directory containing the sprat.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations and the entry point, written
// Class.selector (for example "Main.run:").
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// Runtime configures the interpreter.
type Runtime struct {
	MaxDepth     int    `toml:"max-depth"`
	LogVerbosity int    `toml:"log-verbosity"`
	LogFile      string `toml:"log-file"`
}

// Server configures the Connect server.
type Server struct {
	Port int `toml:"port"`
}

// Dependency is another Sprat project whose modules are imported under
// the dependency's name.
type Dependency struct {
	Git  string `toml:"git"`
	Tag  string `toml:"tag"`
	Path string `toml:"path"`
}

// Load parses and validates the sprat.toml file in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text, checks it against the schema and fills in
// defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if m.Server.Port == 0 {
		m.Server.Port = DefaultPort
	}
	return &m, nil
}

// DefaultPort is the Connect server port when none is configured.
const DefaultPort = 4567

// FindAndLoad walks up from startDir to find a sprat.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// DepsDir returns the path to the .sprat/deps directory.
func (m *Manifest) DepsDir() string {
	return filepath.Join(m.Dir, ".sprat", "deps")
}

// LockFilePath returns the path to .sprat/lock.toml.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.Dir, ".sprat", "lock.toml")
}
