// Package pathutil provides path helpers for error messages and for
// confining tool-supplied paths to the project.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nvandessel/rbmjitter/internal/constants"
)

// RedactPath reduces a full path to .../<parent>/<basename> for error messages.
// For example, "/home/rconan/Documents/GMT/CFD/linear_jitter.npz" becomes ".../CFD/linear_jitter.npz".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidatePath checks that path resolves inside one of allowedDirs.
// Symlinks are resolved on the deepest existing ancestor, so the file
// itself need not exist yet.
func ValidatePath(path string, allowedDirs []string) error {
	if path == "" {
		return fmt.Errorf("path validation failed: path is empty")
	}
	if len(allowedDirs) == 0 {
		return fmt.Errorf("path validation failed: no allowed directories configured")
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path validation failed: path contains null byte")
	}

	resolved, err := resolve(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}

	for _, dir := range allowedDirs {
		root, err := resolve(dir)
		if err != nil {
			continue
		}
		if within(resolved, root) {
			return nil
		}
	}

	return fmt.Errorf("path validation failed: %q is outside allowed directories", RedactPath(resolved))
}

// ResolveIn makes a relative path absolute against root, then validates it
// against allowedDirs.
func ResolveIn(root, path string, allowedDirs []string) (string, error) {
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if err := ValidatePath(path, allowedDirs); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}

// resolve returns the absolute, symlink-free form of path.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	// Walk up to the deepest ancestor that exists, resolve it, and
	// re-append the missing tail.
	var tail []string
	current := abs
	for {
		real, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				real = filepath.Join(real, tail[i])
			}
			return real, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("cannot resolve path: %s", RedactPath(abs))
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}

// within reports whether path equals root or lies beneath it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ProjectDirs returns the directories tool-supplied inputs may come from:
// the project root itself.
func ProjectDirs(projectRoot string) []string {
	return []string{projectRoot}
}

// ExportDir returns <projectRoot>/.rbmjitter/exports.
func ExportDir(projectRoot string) string {
	return filepath.Join(projectRoot, constants.StateDirName, constants.ExportDirName)
}
