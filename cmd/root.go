package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"dupmark/pkg/fingerprint"
	"dupmark/pkg/resolver"
)

var (
	keyKind     = fingerprint.Quick
	position    = resolver.Prefix
	reportOnly  bool
	deleteMode  bool
	verbose     bool
	workers     int
	journalPath string
	skipDirs    []string
)

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupmark [flags] sourcefolder",
		Short: "Mark, delete, or report duplicate files within each folder of a tree",
		Long: `dupmark walks a folder tree and finds files with identical fingerprints
inside the same folder. The first file of each group (by name) is kept;
the others are renamed with a DUPLICATE_<tag> marker, deleted, or only
reported. Duplicates in different folders are counted but never touched.

Fingerprint keys:
  quick         file size + detected MIME type (fast, may group different files)
  content-hash  SHA-256 of the full content

Examples:
  # Preview what would be marked (recommended first step)
  dupmark --report-only /path/to/photos

  # Mark duplicates as DUPLICATE_<tag>_name.jpg
  dupmark --key content-hash /path/to/photos

  # Mark duplicates as name_DUPLICATE_<tag>.jpg
  dupmark --key content-hash --position suffix /path/to/photos

  # Leave NAS thumbnail folders alone
  dupmark --skip-dir @eaDir --skip-dir .thumbnails /path/to/photos

  # Delete duplicates and keep an audit log
  dupmark --key content-hash --delete --journal /tmp/dupmark.jsonl /path/to/photos

Safety:
  The tool will NEVER modify files outside the specified directory.
  Renames never overwrite an existing file.`,
		Args: cobra.ExactArgs(1),
		RunE: runMark,
	}

	flags := cmd.Flags()
	flags.Var(&keyKind, "key", "Fingerprint key: quick or content-hash")
	flags.BoolVarP(&reportOnly, "report-only", "r", false, "Report duplicates without touching any file (wins over --delete)")
	flags.BoolVarP(&deleteMode, "delete", "d", false, "Delete duplicates instead of renaming them")
	flags.Var(&position, "position", "Marker position for renames: prefix or suffix")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print every operation and debug logs")
	flags.IntVar(&workers, "workers", runtime.NumCPU(), "Number of parallel workers for fingerprinting")
	flags.StringVar(&journalPath, "journal", "", "Append successful actions as JSON lines to this file")
	flags.StringSliceVar(&skipDirs, "skip-dir", nil, "Folder name to skip with its subtree, e.g. @eaDir (repeatable)")

	return cmd
}

func selectedPolicy() resolver.Policy {
	switch {
	case reportOnly:
		return resolver.ReportOnly
	case deleteMode:
		return resolver.Delete
	default:
		return resolver.Rename
	}
}
