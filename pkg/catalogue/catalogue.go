// Package catalogue groups files by fingerprint. A Catalogue remembers both
// the order files were added and the order fingerprints were first seen, so
// iterating its groups is deterministic.
package catalogue

import (
	"dupmark/pkg/collector"
	"dupmark/pkg/fingerprint"
)

// Group is the ordered list of files sharing one fingerprint.
type Group struct {
	Fingerprint fingerprint.Fingerprint
	Files       []collector.FileEntry
}

// IsDuplicate reports whether the group has more than one member.
func (g Group) IsDuplicate() bool {
	return len(g.Files) > 1
}

// Retained returns the first file added to the group. It is the copy that is
// kept; the caller must not call it on an empty group.
func (g Group) Retained() collector.FileEntry {
	return g.Files[0]
}

// Candidates returns every member after the retained one.
func (g Group) Candidates() []collector.FileEntry {
	if len(g.Files) < 2 {
		return nil
	}
	return g.Files[1:]
}

// Catalogue maps fingerprints to the files that produced them.
type Catalogue struct {
	order   []fingerprint.Fingerprint
	entries map[fingerprint.Fingerprint][]collector.FileEntry
	files   int
}

// New returns an empty Catalogue.
func New() *Catalogue {
	return &Catalogue{
		entries: make(map[fingerprint.Fingerprint][]collector.FileEntry),
	}
}

// Add appends entry under fp.
func (c *Catalogue) Add(fp fingerprint.Fingerprint, entry collector.FileEntry) {
	if _, ok := c.entries[fp]; !ok {
		c.order = append(c.order, fp)
	}
	c.entries[fp] = append(c.entries[fp], entry)
	c.files++
}

// Files returns the number of files added.
func (c *Catalogue) Files() int {
	return c.files
}

// Len returns the number of distinct fingerprints.
func (c *Catalogue) Len() int {
	return len(c.order)
}

// Groups returns every group in first-seen order.
func (c *Catalogue) Groups() []Group {
	groups := make([]Group, 0, len(c.order))
	for _, fp := range c.order {
		groups = append(groups, Group{Fingerprint: fp, Files: c.entries[fp]})
	}
	return groups
}

// Duplicates returns the groups with more than one member in first-seen order.
func (c *Catalogue) Duplicates() []Group {
	var groups []Group
	for _, g := range c.Groups() {
		if g.IsDuplicate() {
			groups = append(groups, g)
		}
	}
	return groups
}

// DuplicateCount returns the number of non-retained members across all
// duplicate groups.
func (c *Catalogue) DuplicateCount() int {
	count := 0
	for _, g := range c.Duplicates() {
		count += len(g.Candidates())
	}
	return count
}
