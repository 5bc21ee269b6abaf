// Package scanner runs duplicate detection over a whole folder tree. Each
// folder is catalogued and resolved on its own, one folder at a time in path
// order. Every file also goes into a tree-wide catalogue that is only counted
// for the report; cross-folder duplicates are never acted on.
package scanner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dupmark/pkg/catalogue"
	"dupmark/pkg/collector"
	"dupmark/pkg/fingerprint"
	"dupmark/pkg/progress"
	"dupmark/pkg/report"
	"dupmark/pkg/resolver"
)

// Options configures a Scanner.
type Options struct {
	Collector  *collector.Collector
	Strategy   fingerprint.Strategy
	Resolver   *resolver.Resolver
	Workers    int // fingerprint workers per folder; <= 0 means runtime.NumCPU()
	Logger     *zap.Logger
	OnProgress progress.Callback
}

// FolderError records a folder that could not be listed.
type FolderError struct {
	Path string
	Err  error
}

// Result contains the outcome of a run.
type Result struct {
	Root         string
	Folders      int
	Counters     report.Counters
	Operations   []resolver.Operation
	Unavailable  []catalogue.Entry
	FolderErrors []FolderError
	Tree         *catalogue.Catalogue
}

// Scanner walks a tree and resolves same-folder duplicates.
type Scanner struct {
	collector  *collector.Collector
	cataloguer *catalogue.Cataloguer
	resolver   *resolver.Resolver
	logger     *zap.Logger
	onProgress progress.Callback
}

// New creates a Scanner.
func New(opts Options) (*Scanner, error) {
	if opts.Collector == nil {
		return nil, errors.New("collector is required")
	}
	if opts.Strategy == nil {
		return nil, errors.New("fingerprint strategy is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scanner{
		collector:  opts.Collector,
		cataloguer: catalogue.NewCataloguer(opts.Collector, opts.Strategy, catalogue.WithWorkers(opts.Workers)),
		resolver:   opts.Resolver,
		logger:     logger,
		onProgress: opts.OnProgress,
	}, nil
}

// Run scans every folder under the root. Per-file and per-folder failures are
// recorded in the Result and never stop the run. Run returns an error only
// when the root cannot be enumerated or ctx is cancelled; the partial Result
// is returned in both cases.
func (s *Scanner) Run(ctx context.Context) (Result, error) {
	result := Result{
		Root: s.collector.Storage().Root(),
		Tree: catalogue.New(),
	}
	var resolved resolver.Result

	finish := func() {
		result.Operations = resolved.Operations
		result.Counters.Marked = resolved.Marked
		result.Counters.Deleted = resolved.Deleted
		result.Counters.TreeWideDuplicates = result.Tree.DuplicateCount()
		result.Counters.Errors = resolved.ErrorCount + len(result.FolderErrors)
	}

	folders, err := s.collector.Folders(func(werr *collector.WalkError) {
		if !werr.Folder {
			s.logger.Warn("cannot stat entry", zap.String("path", werr.Path), zap.Error(werr.Err))
			return
		}
		s.logger.Warn("cannot list folder", zap.String("folder", werr.Path), zap.Error(werr.Err))
		result.FolderErrors = append(result.FolderErrors, FolderError{Path: werr.Path, Err: werr.Err})
	})
	if err != nil {
		finish()
		return result, fmt.Errorf("enumerate folders: %w", err)
	}

	result.Folders = len(folders)
	s.logger.Debug("scanning tree",
		zap.String("root", result.Root),
		zap.Int("folders", len(folders)),
		zap.Stringer("key", s.cataloguer.Strategy().Kind()),
		zap.Int("workers", s.cataloguer.Workers()),
		zap.Stringer("policy", s.resolver.Policy()),
	)

	for i, dir := range folders {
		if err := ctx.Err(); err != nil {
			finish()
			return result, err
		}

		folder, err := s.cataloguer.Build(ctx, dir)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				finish()
				return result, ctxErr
			}
			s.logger.Warn("cannot catalogue folder", zap.String("folder", dir), zap.Error(err))
			result.FolderErrors = append(result.FolderErrors, FolderError{Path: dir, Err: err})
			continue
		}

		resolved.Merge(s.resolveFolder(folder, &result))

		progress.Emit(s.onProgress, dir, i+1, len(folders))
	}

	finish()

	return result, nil
}

// resolveFolder records the folder's files in the tree catalogue and resolves
// its duplicate groups.
func (s *Scanner) resolveFolder(folder catalogue.Folder, result *Result) resolver.Result {
	for _, entry := range folder.Entries {
		result.Counters.TotalFiles++
		result.Tree.Add(entry.Fingerprint, entry.File)

		if entry.Unavailable() {
			result.Counters.Unavailable++
			result.Unavailable = append(result.Unavailable, entry)
			s.logger.Warn("fingerprint unavailable", zap.String("path", entry.File.Path), zap.Error(entry.Err))
		}
	}

	var resolved resolver.Result
	for _, group := range folder.Catalogue.Duplicates() {
		candidates := len(group.Candidates())
		result.Counters.SameFolderDuplicates += candidates

		if ce := s.logger.Check(zap.DebugLevel, "duplicate group"); ce != nil {
			retained := group.Retained()
			ce.Write(
				zap.String("retained", retained.Path),
				zap.String("ext", retained.Extension()),
				zap.Time("captured", collector.CapturedAt(s.collector.Storage(), retained)),
				zap.Int("candidates", candidates),
			)
		}

		resolved.Merge(s.resolver.Resolve(group))
	}

	return resolved
}
