package parser

import (
	"fmt"
	"path/filepath"

	"github.com/dshills/typedconf/internal/config/lexer"
	"github.com/dshills/typedconf/internal/config/loader"
)

// canonical returns the identity of a file path: absolute with symlinks
// resolved when the file system supports it.
func canonical(fsys loader.FileSystem, path string) (string, error) {
	if c, ok := fsys.(loader.Canonicalizer); ok {
		return c.Canonical(path)
	}
	return filepath.Clean(path), nil
}

// resolveRoot checks the entry point file.
func resolveRoot(fsys loader.FileSystem, path string) (string, error) {
	canon, err := canonical(fsys, path)
	if err != nil {
		return "", lexer.Errorf("File %s not found", path).Wrap(ErrIncludeNotFound)
	}
	info, err := fsys.Stat(canon)
	if err != nil {
		return "", lexer.Errorf("File %s not found", path).Wrap(ErrIncludeNotFound)
	}
	if info.IsDir() {
		return "", lexer.Errorf("%s is a directory, expected file", path).Wrap(ErrIncludeNotFound)
	}
	return canon, nil
}

// resolveInclude resolves an include path relative to the directory of the
// including file. Absolute include paths are rejected.
func resolveInclude(fsys loader.FileSystem, from, path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("Absolute path includes not allowed: %s", path)
	}
	canon, err := canonical(fsys, filepath.Join(filepath.Dir(from), path))
	if err != nil {
		return "", fmt.Errorf("Included file %q not found.", path)
	}
	info, err := fsys.Stat(canon)
	if err != nil {
		return "", fmt.Errorf("Included file %q not found.", path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("Included file %q is a directory, expected file", path)
	}
	return canon, nil
}
