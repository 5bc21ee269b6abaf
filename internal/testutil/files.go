// Package testutil holds fixtures shared by dupmark tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TempDir returns an OS temp directory with symlinks resolved, so paths
// built from it match the paths storage reports.
func TempDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	return dir
}

// MemFs returns an in-memory filesystem with root created.
func MemFs(t *testing.T, root string) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(root, 0o755))

	return fsys
}

// CreateFile writes content to path on the OS filesystem.
func CreateFile(t *testing.T, path, content string) {
	t.Helper()
	WriteFile(t, afero.NewOsFs(), path, []byte(content))
}

// CreateFileWithModTime writes content to path on the OS filesystem and sets
// its modification time.
func CreateFileWithModTime(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	WriteFileWithModTime(t, afero.NewOsFs(), path, []byte(content), modTime)
}

// WriteFile writes content to path on fsys, creating parent directories.
func WriteFile(t *testing.T, fsys afero.Fs, path string, content []byte) {
	t.Helper()
	writeFile(t, fsys, path, content, false, time.Time{})
}

// WriteFileWithModTime is WriteFile followed by a Chtimes.
func WriteFileWithModTime(t *testing.T, fsys afero.Fs, path string, content []byte, modTime time.Time) {
	t.Helper()
	writeFile(t, fsys, path, content, true, modTime)
}

func writeFile(t *testing.T, fsys afero.Fs, path string, content []byte, setModTime bool, modTime time.Time) {
	t.Helper()

	err := fsys.MkdirAll(filepath.Dir(path), 0o755)
	require.NoError(t, err)

	err = afero.WriteFile(fsys, path, content, 0o644)
	require.NoError(t, err)

	if !setModTime {
		return
	}

	err = fsys.Chtimes(path, modTime, modTime)
	require.NoError(t, err)
}

// ReadFile returns the content of path on fsys.
func ReadFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()

	content, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)

	return string(content)
}

// FileNames returns the names of the regular files directly inside dir.
func FileNames(t *testing.T, fsys afero.Fs, dir string) []string {
	t.Helper()

	infos, err := afero.ReadDir(fsys, dir)
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}

	return names
}

// FaultFs wraps a filesystem and fails selected operations with a
// permission error. Paths are matched exactly. Walks over a FaultFs stat
// each entry, so DenyStat makes a single entry fail mid-walk.
type FaultFs struct {
	afero.Fs
	DenyStat   map[string]bool
	DenyOpen   map[string]bool
	DenyRemove map[string]bool
	DenyRename map[string]bool
}

// NewFaultFs wraps base with empty deny sets.
func NewFaultFs(base afero.Fs) *FaultFs {
	return &FaultFs{
		Fs:         base,
		DenyStat:   make(map[string]bool),
		DenyOpen:   make(map[string]bool),
		DenyRemove: make(map[string]bool),
		DenyRename: make(map[string]bool),
	}
}

func (f *FaultFs) Stat(name string) (os.FileInfo, error) {
	if f.DenyStat[name] {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Stat(name)
}

func (f *FaultFs) Open(name string) (afero.File, error) {
	if f.DenyOpen[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

func (f *FaultFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.DenyOpen[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *FaultFs) Remove(name string) error {
	if f.DenyRemove[name] {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Remove(name)
}

func (f *FaultFs) Rename(oldname, newname string) error {
	if f.DenyRename[oldname] {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
	}
	return f.Fs.Rename(oldname, newname)
}
