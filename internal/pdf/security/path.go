// Package security confines paths received from tool calls to the document
// directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves tool-supplied paths against a root directory and
// rejects anything that escapes it, including through symlinks.
type PathValidator struct {
	root     string
	realRoot string
}

// NewPathValidator creates a new path validator for root, which must be an
// existing directory.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot access root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate root symlinks: %w", err)
	}

	return &PathValidator{root: filepath.Clean(absRoot), realRoot: filepath.Clean(realRoot)}, nil
}

// Root returns the absolute root directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are taken
// relative to the root. The path need not exist, but whatever part of it does
// exist must resolve inside the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	absPath := filepath.Clean(path)

	if !within(absPath, v.root) && !within(absPath, v.realRoot) {
		return "", fmt.Errorf("path is outside the document directory: %s", path)
	}

	realPath, err := evalExisting(absPath)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within(realPath, v.realRoot) {
		return "", fmt.Errorf("path is outside the document directory: %s", path)
	}

	return absPath, nil
}

// ResolveFile resolves path and requires it to be an existing regular file
func (v *PathValidator) ResolveFile(path string) (string, error) {
	resolved, err := v.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path is not a regular file: %s", path)
	}
	return resolved, nil
}

// ResolveDirectory resolves dirPath and requires it to be an existing
// directory. An empty dirPath means the root.
func (v *PathValidator) ResolveDirectory(dirPath string) (string, error) {
	if strings.TrimSpace(dirPath) == "" {
		return v.root, nil
	}

	resolved, err := v.Resolve(dirPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", dirPath)
	}
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return resolved, nil
}

// within reports whether path equals dir or lies beneath it
func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// evalExisting resolves symlinks in the longest existing prefix of path and
// re-attaches the missing tail.
func evalExisting(path string) (string, error) {
	var tail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return filepath.Clean(resolved), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}
