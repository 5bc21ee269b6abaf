// Package storage is the filesystem boundary for a dupmark run. Every read and
// mutation is resolved against an explicit root directory and refused when it
// would escape that root. The underlying filesystem is an afero.Fs so the
// engine can run against the real disk or an in-memory tree.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

var (
	// ErrPathEscape indicates an attempt to access a path outside the root.
	ErrPathEscape = errors.New("path escapes root directory")
	// ErrInvalidRoot indicates the root path is invalid.
	ErrInvalidRoot = errors.New("invalid root directory")
	// ErrDestinationExists is returned by Rename instead of overwriting a file.
	ErrDestinationExists = errors.New("destination already exists")
)

var errCannotRemoveRoot = errors.New("cannot remove root directory")

// Storage resolves file operations against a single root directory.
type Storage struct {
	fs   afero.Fs
	root string // Absolute, cleaned path to root directory.
}

// New creates a Storage for root on the given filesystem.
// The root must be absolute and must be an existing directory.
func New(fsys afero.Fs, root string) (*Storage, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: filesystem is required", ErrInvalidRoot)
	}

	cleanRoot := filepath.Clean(root)
	if !filepath.IsAbs(cleanRoot) {
		return nil, fmt.Errorf("%w: %s is not absolute", ErrInvalidRoot, root)
	}

	info, err := fsys.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrInvalidRoot)
	}

	return &Storage{fs: fsys, root: cleanRoot}, nil
}

// NewOS creates a Storage backed by the operating system filesystem.
// Relative roots and symlinked roots are resolved first.
func NewOS(root string) (*Storage, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	return New(afero.NewOsFs(), resolvedRoot)
}

// Root returns the absolute path to the root directory.
func (s *Storage) Root() string {
	return s.root
}

// Contains reports whether path is within the root directory.
func (s *Storage) Contains(path string) bool {
	return s.ValidatePath(path) == nil
}

// ValidatePath returns ErrPathEscape if path is outside the root directory.
func (s *Storage) ValidatePath(path string) error {
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		cleanPath = filepath.Join(s.root, cleanPath)
	}

	if !isSubPath(s.root, cleanPath) {
		return fmt.Errorf("%w: %s", ErrPathEscape, path)
	}

	return nil
}

// Rel returns path relative to the root, or path itself when it cannot be
// expressed relative to the root.
func (s *Storage) Rel(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}
	return rel
}

// Walk walks the tree under the root in lexical order.
func (s *Storage) Walk(fn filepath.WalkFunc) error {
	return afero.Walk(s.fs, s.root, fn)
}

// ReadDir lists dir sorted by name.
func (s *Storage) ReadDir(dir string) ([]os.FileInfo, error) {
	if err := s.ValidatePath(dir); err != nil {
		return nil, err
	}

	return afero.ReadDir(s.fs, dir)
}

// Stat returns file info for path.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	if err := s.ValidatePath(path); err != nil {
		return nil, err
	}

	return s.fs.Stat(path)
}

// Open opens path for reading.
func (s *Storage) Open(path string) (afero.File, error) {
	if err := s.ValidatePath(path); err != nil {
		return nil, err
	}

	return s.fs.Open(path)
}

// Exists reports whether path exists.
func (s *Storage) Exists(path string) (bool, error) {
	if err := s.ValidatePath(path); err != nil {
		return false, err
	}

	return afero.Exists(s.fs, path)
}

// DetectContentType detects the MIME type of the file at path from its
// content. The file name is never consulted.
func (s *Storage) DetectContentType(path string) (string, error) {
	f, err := s.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return mtype.String(), nil
}

// Rename moves oldPath to newPath. Both must be inside the root and newPath
// must not exist yet.
func (s *Storage) Rename(oldPath, newPath string) error {
	if err := s.ValidatePath(oldPath); err != nil {
		return fmt.Errorf("source %w", err)
	}
	if err := s.ValidatePath(newPath); err != nil {
		return fmt.Errorf("destination %w", err)
	}

	exists, err := s.Exists(newPath)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDestinationExists, newPath)
	}

	return s.fs.Rename(oldPath, newPath)
}

// Remove deletes the file at path. The root itself is never removed.
func (s *Storage) Remove(path string) error {
	if err := s.ValidatePath(path); err != nil {
		return err
	}
	if filepath.Clean(path) == s.root {
		return errCannotRemoveRoot
	}

	return s.fs.Remove(path)
}

// isSubPath checks if child is a subpath of parent.
// Both paths must be absolute and clean.
func isSubPath(parent, child string) bool {
	if parent == child {
		return true
	}

	parentWithSep := parent
	if !strings.HasSuffix(parentWithSep, string(filepath.Separator)) {
		parentWithSep += string(filepath.Separator)
	}

	return strings.HasPrefix(child, parentWithSep)
}
