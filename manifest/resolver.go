package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("sprat.manifest")

// ResolvedDep is a dependency that has been resolved to a local directory.
type ResolvedDep struct {
	Name       string     // dependency name, the first segment of its import paths
	Dependency Dependency // the declaration it was resolved from
	LocalPath  string     // local filesystem path
	Manifest   *Manifest  // the dependency's own manifest (may be nil)
}

// SourceDirPaths returns the directories the dependency's modules live in:
// its manifest's source dirs, or its root when it has no manifest.
func (d ResolvedDep) SourceDirPaths() []string {
	if d.Manifest != nil {
		return d.Manifest.SourceDirPaths()
	}
	return []string{d.LocalPath}
}

// Resolver manages dependency resolution.
type Resolver struct {
	manifest *Manifest
	lock     *LockFile
}

// NewResolver creates a new dependency resolver.
func NewResolver(m *Manifest) *Resolver {
	return &Resolver{manifest: m}
}

// Resolve resolves every dependency, transitive ones included, and returns
// them with dependencies before their dependents. The lock file is updated
// when the project has git dependencies.
func (r *Resolver) Resolve() ([]ResolvedDep, error) {
	lock, err := ReadLock(r.manifest.LockFilePath())
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	r.lock = lock

	resolved := make(map[string]*ResolvedDep)
	order, err := r.resolveAll(r.manifest, resolved)
	if err != nil {
		return nil, err
	}

	if r.hasGitDeps(resolved) {
		if err := r.writeLock(resolved); err != nil {
			return nil, fmt.Errorf("writing lock file: %w", err)
		}
	}
	return order, nil
}

// resolveAll resolves owner's dependencies in name order, recursing into
// each dependency's own manifest.
func (r *Resolver) resolveAll(owner *Manifest, resolved map[string]*ResolvedDep) ([]ResolvedDep, error) {
	names := make([]string, 0, len(owner.Dependencies))
	for name := range owner.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var order []ResolvedDep
	for _, name := range names {
		if _, ok := resolved[name]; ok {
			continue
		}
		rd, err := r.resolveOne(owner, name, owner.Dependencies[name])
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}
		resolved[name] = rd

		if rd.Manifest != nil && len(rd.Manifest.Dependencies) > 0 {
			transitive, err := r.resolveAll(rd.Manifest, resolved)
			if err != nil {
				return nil, err
			}
			order = append(order, transitive...)
		}
		order = append(order, *rd)
	}
	return order, nil
}

// resolveOne resolves a single dependency declared by owner. Relative
// paths are taken from owner's directory.
func (r *Resolver) resolveOne(owner *Manifest, name string, dep Dependency) (*ResolvedDep, error) {
	switch {
	case dep.Path != "":
		localPath := dep.Path
		if !filepath.IsAbs(localPath) {
			localPath = filepath.Join(owner.Dir, localPath)
		}
		localPath, err := filepath.Abs(localPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", dep.Path, err)
		}
		if _, err := os.Stat(localPath); err != nil {
			return nil, fmt.Errorf("local dependency %q not found at %s: %w", name, localPath, err)
		}
		return r.resolved(name, dep, localPath)

	case dep.Git != "":
		depDir := filepath.Join(r.manifest.DepsDir(), name)
		if err := r.fetch(name, dep, depDir); err != nil {
			return nil, err
		}
		return r.resolved(name, dep, depDir)
	}
	return nil, fmt.Errorf("dependency %q has no git or path specified", name)
}

func (r *Resolver) resolved(name string, dep Dependency, dir string) (*ResolvedDep, error) {
	var depManifest *Manifest
	if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
		m, err := Load(dir)
		if err != nil {
			return nil, err
		}
		depManifest = m
	}
	log.Debugf("resolved dependency %s at %s", name, dir)
	return &ResolvedDep{Name: name, Dependency: dep, LocalPath: dir, Manifest: depManifest}, nil
}

// fetch makes sure depDir holds the requested revision of a git dependency.
func (r *Resolver) fetch(name string, dep Dependency, depDir string) error {
	if err := os.MkdirAll(filepath.Dir(depDir), 0755); err != nil {
		return fmt.Errorf("creating deps dir: %w", err)
	}
	if _, err := os.Stat(depDir); os.IsNotExist(err) {
		log.Infof("cloning %s from %s", name, dep.Git)
		if err := gitClone(dep.Git, depDir); err != nil {
			return err
		}
	} else if locked := r.lock.FindLockedDep(name); locked == nil || locked.Tag != dep.Tag {
		log.Infof("fetching %s", name)
		if err := gitFetch(depDir); err != nil {
			return err
		}
	}
	if dep.Tag != "" {
		return gitCheckout(depDir, dep.Tag)
	}
	return nil
}

func (r *Resolver) hasGitDeps(resolved map[string]*ResolvedDep) bool {
	for _, rd := range resolved {
		if rd.Dependency.Git != "" {
			return true
		}
	}
	return false
}

// writeLock writes the resolved dependencies to the lock file.
func (r *Resolver) writeLock(resolved map[string]*ResolvedDep) error {
	lf := &LockFile{}
	for _, rd := range resolved {
		ld := LockedDep{Name: rd.Name}
		dep := rd.Dependency
		switch {
		case dep.Git != "":
			ld.Git = dep.Git
			ld.Tag = dep.Tag
			if commit, err := gitCurrentCommit(rd.LocalPath); err == nil {
				ld.Commit = commit
			}
		case dep.Path != "":
			ld.Path = dep.Path
		}
		lf.Deps = append(lf.Deps, ld)
	}

	if err := os.MkdirAll(filepath.Dir(r.manifest.LockFilePath()), 0755); err != nil {
		return err
	}
	return WriteLock(r.manifest.LockFilePath(), lf)
}
