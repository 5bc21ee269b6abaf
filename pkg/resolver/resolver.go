// Package resolver acts on groups of same-fingerprint files found in one
// folder. The first member of a group is always kept untouched; every other
// member is reported, deleted, or renamed in place with a shared group tag.
package resolver

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"dupmark/pkg/catalogue"
	"dupmark/pkg/collector"
	"dupmark/pkg/journal"
	"dupmark/pkg/storage"
)

// Policy selects what happens to duplicate candidates.
type Policy int

const (
	// ReportOnly touches no files.
	ReportOnly Policy = iota
	// Delete removes every candidate.
	Delete
	// Rename marks every candidate with a group tag.
	Rename
)

func (p Policy) String() string {
	switch p {
	case ReportOnly:
		return "report-only"
	case Delete:
		return "delete"
	case Rename:
		return "rename"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Action is what was done (or would be done) to one candidate.
type Action string

const (
	ActionReport Action = "report"
	ActionDelete Action = "delete"
	ActionRename Action = "rename"
)

// Operation records the outcome for one candidate.
type Operation struct {
	Action   Action
	Path     string // candidate path
	NewPath  string // rename destination
	Retained string // path of the kept group member
	Tag      int    // group tag for renames
	Error    error
}

// Result contains the outcome of resolving one or more groups.
// Marked and Deleted count successes only.
type Result struct {
	Operations []Operation
	Marked     int
	Deleted    int
	ErrorCount int
}

// Merge adds other's operations and counters to r.
func (r *Result) Merge(other Result) {
	r.Operations = append(r.Operations, other.Operations...)
	r.Marked += other.Marked
	r.Deleted += other.Deleted
	r.ErrorCount += other.ErrorCount
}

// Resolver applies a policy to duplicate groups.
type Resolver struct {
	store    *storage.Storage
	policy   Policy
	position Position
	tags     *tagger
	journal  *journal.Writer
	logger   *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPosition sets where rename markers go. Default is Prefix.
func WithPosition(pos Position) Option {
	return func(r *Resolver) {
		r.position = pos
	}
}

// WithTagSource replaces the random group tag generator.
func WithTagSource(draw func() int) Option {
	return func(r *Resolver) {
		r.tags = newTagger(draw)
	}
}

// WithJournal records every successful rename and delete to w.
func WithJournal(w *journal.Writer) Option {
	return func(r *Resolver) {
		r.journal = w
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver mutating files through store.
func New(store *storage.Storage, policy Policy, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}

	r := &Resolver{
		store:    store,
		policy:   policy,
		position: Prefix,
		tags:     newTagger(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	switch r.policy {
	case ReportOnly, Delete, Rename:
	default:
		return nil, fmt.Errorf("unsupported policy %s", r.policy)
	}

	return r, nil
}

// Policy returns the active policy.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Position returns the rename marker position.
func (r *Resolver) Position() Position {
	return r.position
}

// Resolve applies the policy to every candidate of group. A failure on one
// candidate is recorded on its Operation and the remaining candidates are
// still attempted.
func (r *Resolver) Resolve(group catalogue.Group) Result {
	candidates := group.Candidates()
	if len(candidates) == 0 {
		return Result{}
	}

	retained := group.Retained().Path
	result := Result{Operations: make([]Operation, 0, len(candidates))}

	switch r.policy {
	case ReportOnly:
		for _, c := range candidates {
			result.Operations = append(result.Operations, Operation{
				Action:   ActionReport,
				Path:     c.Path,
				Retained: retained,
			})
		}
		result.Marked = len(candidates)
		return result

	case Delete:
		for _, c := range candidates {
			op := r.deleteFile(c, retained)
			if op.Error == nil {
				result.Deleted++
			}
			result.Operations = append(result.Operations, op)
		}

	case Rename:
		tag := r.tags.next()
		for _, c := range candidates {
			op := r.renameFile(c, retained, tag)
			if op.Error == nil {
				result.Marked++
			}
			result.Operations = append(result.Operations, op)
		}
	}

	for _, op := range result.Operations {
		if op.Error != nil {
			result.ErrorCount++
		}
	}

	return result
}

func (r *Resolver) deleteFile(file collector.FileEntry, retained string) Operation {
	op := Operation{
		Action:   ActionDelete,
		Path:     file.Path,
		Retained: retained,
	}

	if err := r.store.Remove(file.Path); err != nil {
		op.Error = fmt.Errorf("failed to delete: %w", err)
		return op
	}

	r.record(journal.Entry{
		Type:     journal.TypeDelete,
		Source:   r.store.Rel(file.Path),
		Retained: r.store.Rel(retained),
	})

	return op
}

func (r *Resolver) renameFile(file collector.FileEntry, retained string, tag int) Operation {
	op := Operation{
		Action:   ActionRename,
		Path:     file.Path,
		NewPath:  filepath.Join(file.Dir, MarkedName(file.Name, tag, r.position)),
		Retained: retained,
		Tag:      tag,
	}

	if err := r.store.Rename(op.Path, op.NewPath); err != nil {
		op.Error = fmt.Errorf("failed to rename: %w", err)
		return op
	}

	r.record(journal.Entry{
		Type:     journal.TypeRename,
		Source:   r.store.Rel(op.Path),
		Dest:     r.store.Rel(op.NewPath),
		Retained: r.store.Rel(retained),
		Tag:      tag,
	})

	return op
}

func (r *Resolver) record(entry journal.Entry) {
	if r.journal == nil {
		return
	}

	if err := r.journal.Log(entry); err != nil {
		r.logger.Warn("journal write failed", zap.String("path", entry.Source), zap.Error(err))
	}
}
