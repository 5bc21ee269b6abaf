// Package collector enumerates the folders of a tree and lists the files
// directly inside each folder.
package collector

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dupmark/pkg/storage"
)

// FileEntry holds metadata about a file.
type FileEntry struct {
	Path    string    // Full path to the file
	Dir     string    // Directory containing the file
	Name    string    // Base name
	Size    int64     // File size in bytes
	ModTime time.Time // Modification time
}

// Extension returns the lowercase extension without the dot. "jpeg" is
// normalized to "jpg".
func (f FileEntry) Extension() string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}

// Stem returns the base name without its extension.
func (f FileEntry) Stem() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

// Options configures the collector behavior.
type Options struct {
	// SkipFiles is a list of file names to skip (e.g. .DS_Store).
	SkipFiles []string
	// SkipDirs is a list of directory names whose subtrees are skipped.
	SkipDirs []string
	// SkipPaths is a list of absolute file paths to skip.
	SkipPaths []string
}

// Collector lists folders and files under a storage root.
type Collector struct {
	store     *storage.Storage
	skipFiles map[string]bool
	skipDirs  map[string]bool
	skipPaths map[string]bool
}

// New creates a new Collector with the given options.
func New(store *storage.Storage, opts Options) *Collector {
	c := &Collector{
		store:     store,
		skipFiles: make(map[string]bool),
		skipDirs:  make(map[string]bool),
		skipPaths: make(map[string]bool),
	}

	for _, f := range opts.SkipFiles {
		c.skipFiles[f] = true
	}
	for _, d := range opts.SkipDirs {
		c.skipDirs[d] = true
	}
	for _, p := range opts.SkipPaths {
		c.skipPaths[filepath.Clean(p)] = true
	}

	return c
}

// Storage returns the storage the collector reads from.
func (c *Collector) Storage() *storage.Storage {
	return c.store
}

// WalkError describes a path Folders could not read.
type WalkError struct {
	Path string
	// Folder is set when Path is a folder whose contents could not be listed.
	// Otherwise Path is an entry that could not be stat'ed, for example a
	// file removed while the walk was running.
	Folder bool
	Err    error
}

func (e *WalkError) Error() string {
	if e.Folder {
		return "cannot list folder " + e.Path + ": " + e.Err.Error()
	}
	return "cannot stat " + e.Path + ": " + e.Err.Error()
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

// Folders returns the root and every folder below it, each exactly once,
// sorted by path. Symlinked directories are not followed. A folder that
// cannot be listed is left out and reported to onError with Folder set; an
// entry that cannot be stat'ed is reported without it. Only a failure to stat
// the root itself is returned as an error.
func (c *Collector) Folders(onError func(*WalkError)) ([]string, error) {
	root := c.store.Root()
	var folders []string

	report := func(werr *WalkError) {
		if onError != nil {
			onError(werr)
		}
	}

	err := c.store.Walk(func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info == nil && path == root {
				return err
			}
			if info == nil {
				report(&WalkError{Path: path, Err: err})
				return nil
			}
			if info.IsDir() && len(folders) > 0 && folders[len(folders)-1] == path {
				folders = folders[:len(folders)-1]
			}
			report(&WalkError{Path: path, Folder: info.IsDir(), Err: err})
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if path != root && c.skipDirs[info.Name()] {
			return filepath.SkipDir
		}

		folders = append(folders, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(folders)

	return folders, nil
}

// CollectFromDir lists the regular files directly inside dir, sorted by name.
// Sub-folders and symlinks are ignored.
func (c *Collector) CollectFromDir(dir string) ([]FileEntry, error) {
	infos, err := c.store.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]FileEntry, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}

		if c.skipFiles[info.Name()] {
			continue
		}

		fullPath := filepath.Join(dir, info.Name())
		if c.skipPaths[fullPath] {
			continue
		}

		files = append(files, FileEntry{
			Path:    fullPath,
			Dir:     dir,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}
