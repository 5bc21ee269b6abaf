// Package report accumulates the counters of a run and renders them as a
// two-column Entity/Count table.
package report

import (
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// Counter labels, in report order.
const (
	LabelTotalFiles           = "total-files-seen"
	LabelSameFolderDuplicates = "same-folder-duplicates-seen"
	LabelTreeWideDuplicates   = "tree-wide-duplicates-seen"
	LabelMarked               = "same-folder-duplicates-marked"
	LabelDeleted              = "same-folder-duplicates-deleted"
	LabelUnavailable          = "fingerprints-unavailable"
	LabelErrors               = "action-errors"
)

// Counters are the run-wide totals. Marked and Deleted only count actions
// that succeeded; in report-only mode Marked counts files that would be marked.
type Counters struct {
	TotalFiles           int
	SameFolderDuplicates int
	TreeWideDuplicates   int
	Marked               int
	Deleted              int
	Unavailable          int
	Errors               int
}

// Row is one labelled counter.
type Row struct {
	Label string
	Count int
}

// Rows returns the counters as ordered (label, count) pairs.
func (c Counters) Rows() []Row {
	return []Row{
		{Label: LabelTotalFiles, Count: c.TotalFiles},
		{Label: LabelSameFolderDuplicates, Count: c.SameFolderDuplicates},
		{Label: LabelTreeWideDuplicates, Count: c.TreeWideDuplicates},
		{Label: LabelMarked, Count: c.Marked},
		{Label: LabelDeleted, Count: c.Deleted},
		{Label: LabelUnavailable, Count: c.Unavailable},
		{Label: LabelErrors, Count: c.Errors},
	}
}

// Render writes rows to w as a table with columns Entity and Count.
func Render(w io.Writer, rows []Row) {
	tbl := table.New("Entity", "Count").WithWriter(w)
	tbl.WithHeaderFormatter(color.New(color.Bold, color.Underline).SprintfFunc())

	for _, row := range rows {
		tbl.AddRow(row.Label, row.Count)
	}

	tbl.Print()
}
