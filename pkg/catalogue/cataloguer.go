package catalogue

import (
	"context"
	"runtime"
	"sync"

	"dupmark/pkg/collector"
	"dupmark/pkg/fingerprint"
)

// Entry is one listed file with the outcome of fingerprinting it.
type Entry struct {
	File        collector.FileEntry
	Fingerprint fingerprint.Fingerprint // Isolated key when Err is set
	Err         error                   // wraps fingerprint.ErrUnavailable
}

// Unavailable reports whether the file could not be fingerprinted.
func (e Entry) Unavailable() bool {
	return e.Err != nil
}

// Folder is the catalogue of one directory's direct files.
type Folder struct {
	Dir       string
	Entries   []Entry // listing order
	Catalogue *Catalogue
}

// Cataloguer builds single-folder catalogues.
type Cataloguer struct {
	collector *collector.Collector
	strategy  fingerprint.Strategy
	workers   int
}

// Option configures a Cataloguer.
type Option func(*Cataloguer)

// WithWorkers sets how many files are fingerprinted concurrently.
// Default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *Cataloguer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewCataloguer creates a Cataloguer listing through c and keying with strategy.
func NewCataloguer(c *collector.Collector, strategy fingerprint.Strategy, opts ...Option) *Cataloguer {
	cat := &Cataloguer{
		collector: c,
		strategy:  strategy,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(cat)
	}
	return cat
}

// Strategy returns the fingerprint strategy in use.
func (c *Cataloguer) Strategy() fingerprint.Strategy {
	return c.strategy
}

// Workers returns the number of fingerprint workers.
func (c *Cataloguer) Workers() int {
	return c.workers
}

// Build lists dir without recursing and catalogues its files. Files are
// inserted in listing order no matter which worker finished first. A file
// whose fingerprint is unavailable is catalogued under its own isolated key.
// Build never modifies the filesystem.
func (c *Cataloguer) Build(ctx context.Context, dir string) (Folder, error) {
	files, err := c.collector.CollectFromDir(dir)
	if err != nil {
		return Folder{}, err
	}

	entries := c.fingerprintAll(ctx, files)
	if err := ctx.Err(); err != nil {
		return Folder{}, err
	}

	cat := New()
	for i := range entries {
		if entries[i].Err != nil {
			entries[i].Fingerprint = fingerprint.Isolated(entries[i].File.Path)
		}
		cat.Add(entries[i].Fingerprint, entries[i].File)
	}

	return Folder{Dir: dir, Entries: entries, Catalogue: cat}, nil
}

// fingerprintAll fingerprints files on a bounded pool. Each worker writes
// only to its own index of the result slice.
func (c *Cataloguer) fingerprintAll(ctx context.Context, files []collector.FileEntry) []Entry {
	entries := make([]Entry, len(files))
	if len(files) == 0 {
		return entries
	}

	workers := min(c.workers, len(files))
	work := make(chan int, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				entries[i].File = files[i]
				if ctx.Err() != nil {
					continue
				}
				entries[i].Fingerprint, entries[i].Err = c.strategy.Fingerprint(files[i])
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	wg.Wait()

	return entries
}
