package manifest

import (
	"fmt"
	"os/exec"
	"strings"
)

// gitClone clones a git repository to dest.
func gitClone(url, dest string) error {
	return git("", "clone", "--quiet", url, dest)
}

// gitCheckout checks out a tag, branch or commit in dir.
func gitCheckout(dir, ref string) error {
	return git(dir, "checkout", "--quiet", ref)
}

// gitFetch fetches updates from the remote.
func gitFetch(dir string) error {
	return git(dir, "fetch", "--quiet", "--all", "--tags")
}

// gitCurrentCommit returns the current HEAD commit hash.
func gitCurrentCommit(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD in %s: %w", dir, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func git(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return nil
}
