package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dupmark/pkg/collector"
	"dupmark/pkg/fingerprint"
	"dupmark/pkg/journal"
	"dupmark/pkg/report"
	"dupmark/pkg/resolver"
	"dupmark/pkg/scanner"
	"dupmark/pkg/storage"
)

func runMark(_ *cobra.Command, args []string) error {
	absPath, err := validateAndResolvePath(args[0])
	if err != nil {
		return err
	}

	store, err := storage.NewOS(absPath)
	if err != nil {
		return err
	}

	logger := newLogger(verbose)
	defer func() { _ = logger.Sync() }()

	policy := selectedPolicy()

	skipPaths, jw, err := openJournal(store)
	if err != nil {
		return err
	}
	if jw != nil {
		defer func() {
			if closeErr := jw.Close(); closeErr != nil {
				logger.Warn("failed to close journal", zap.Error(closeErr))
			}
		}()
	}

	strategy, err := fingerprint.New(keyKind, store)
	if err != nil {
		return err
	}

	resolverOpts := []resolver.Option{
		resolver.WithPosition(position),
		resolver.WithLogger(logger),
	}
	if jw != nil {
		resolverOpts = append(resolverOpts, resolver.WithJournal(jw))
	}

	res, err := resolver.New(store, policy, resolverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}

	printReportOnlyBanner()
	printCommandHeader(strings.ToUpper(policy.String()), store.Root())
	fmt.Printf("Fingerprint key: %s\n", keyKind)
	if jw != nil {
		fmt.Printf("Journal: %s\n", jw.Path())
	}
	fmt.Println("Scanning folders...")

	progress := startProgress("Working", 5*time.Second)
	startTime := time.Now()

	s, err := scanner.New(scanner.Options{
		Collector: collector.New(store, collector.Options{
			SkipFiles: append([]string(nil), defaultSkipFiles...),
			SkipDirs:  skipDirs,
			SkipPaths: skipPaths,
		}),
		Strategy:   strategy,
		Resolver:   res,
		Workers:    workers,
		Logger:     logger,
		OnProgress: progress.Update,
	})
	if err != nil {
		progress.Stop()
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, runErr := s.Run(ctx)
	progress.Stop()

	fmt.Printf("Scanned %d folders in %v\n\n", result.Folders, time.Since(startTime).Round(time.Millisecond))

	printOperations(result.Operations)
	for _, fe := range result.FolderErrors {
		fmt.Printf("ERROR: %s: %v\n", fe.Path, fe.Err)
	}

	report.Render(os.Stdout, result.Counters.Rows())
	printReportOnlyHint()

	if runErr != nil {
		return fmt.Errorf("scan interrupted: %w", runErr)
	}

	return nil
}

// openJournal opens the journal writer when --journal is set and returns the
// paths the scan must skip so the journal never fingerprints itself.
func openJournal(store *storage.Storage) ([]string, *journal.Writer, error) {
	if journalPath == "" {
		return nil, nil, nil
	}

	path, err := resolveJournalPath(journalPath)
	if err != nil {
		return nil, nil, err
	}

	jw, err := journal.NewWriter(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}

	var skipPaths []string
	if store.Contains(path) {
		skipPaths = append(skipPaths, path)
	}

	return skipPaths, jw, nil
}

func printOperations(ops []resolver.Operation) {
	showAll := verbose || reportOnly

	printed := false
	for _, op := range ops {
		if op.Error == nil && !showAll {
			continue
		}
		printOperation(op)
		printed = true
	}

	if printed {
		fmt.Println()
	}
}

func printOperation(op resolver.Operation) {
	switch {
	case op.Error != nil:
		fmt.Printf("ERROR: %s: %v\n", op.Path, op.Error)
	case op.Action == resolver.ActionRename:
		fmt.Printf("RENAME: %s\n", op.Path)
		fmt.Printf("    TO: %s\n", op.NewPath)
		fmt.Printf("  KEPT: %s\n", op.Retained)
	case op.Action == resolver.ActionDelete:
		fmt.Printf("DELETE: %s\n", op.Path)
		fmt.Printf("  KEPT: %s\n", op.Retained)
	default:
		fmt.Printf("DUPLICATE: %s\n", op.Path)
		fmt.Printf("     KEPT: %s\n", op.Retained)
	}
}
