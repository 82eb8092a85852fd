// Package loader reads the inputs that surround config files: schema
// documents that populate the type registry, override variables from the
// environment and the command line tool's rc file.
//
// File access goes through FileSystem so that tests and embedded resources
// can substitute the OS.
package loader

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose suffix has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// Canonicalizer is implemented by file systems that can map a path to a
// unique identity, such as an absolute path with symlinks resolved.
type Canonicalizer interface {
	Canonical(path string) (string, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Canonical returns the absolute path with symlinks resolved.
func (OSFS) Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// FromFS adapts an fs.FS, such as an embed.FS, to FileSystem. Paths are
// slash separated and relative to the root of fsys.
func FromFS(fsys fs.FS) FileSystem {
	return ioFS{fsys}
}

type ioFS struct {
	fsys fs.FS
}

func (f ioFS) Open(name string) (fs.File, error) {
	return f.fsys.Open(name)
}

func (f ioFS) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(f.fsys, name)
}

func (f ioFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(f.fsys, name)
}

// Canonical cleans name and rejects paths that leave the root.
func (f ioFS) Canonical(name string) (string, error) {
	clean := path.Clean(filepath.ToSlash(name))
	clean = strings.TrimPrefix(clean, "./")
	if !fs.ValidPath(clean) {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return clean, nil
}
