package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultSkipFiles = []string{".DS_Store", "Thumbs.db"}

func validateAndResolvePath(targetDir string) (string, error) {
	// Validate directory exists.
	info, err := os.Stat(targetDir)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", targetDir)
	}

	// Convert to absolute path.
	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}

	return absPath, nil
}

// resolveJournalPath returns the absolute, symlink-free location of the
// journal file. The file itself may not exist yet.
func resolveJournalPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve journal path: %w", err)
	}

	dir, err := filepath.EvalSymlinks(filepath.Dir(absPath))
	if err != nil {
		return "", fmt.Errorf("cannot resolve journal directory: %w", err)
	}

	return filepath.Join(dir, filepath.Base(absPath)), nil
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	return zap.New(core)
}

func printCommandHeader(command, rootDir string) {
	fmt.Printf("Command: %s\n", command)
	fmt.Printf("Root directory: %s\n", rootDir)
}

func printReportOnlyBanner() {
	if !reportOnly {
		return
	}

	fmt.Println("=== REPORT ONLY - no changes will be made ===")
	fmt.Println()
}

func printReportOnlyHint() {
	if !reportOnly {
		return
	}

	fmt.Println()
	fmt.Println("Run without --report-only to apply changes.")
}

// progressReporter prints the scan position to stderr at a fixed interval
// until stopped. Update may be called from the scanning goroutine.
type progressReporter struct {
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
	processed atomic.Int64
	total     atomic.Int64
}

func startProgress(label string, interval time.Duration) *progressReporter {
	p := &progressReporter{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	startTime := time.Now()
	ticker := time.NewTicker(interval)

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-ticker.C:
				elapsed := time.Since(startTime).Round(time.Second)
				if total := p.total.Load(); total > 0 {
					fmt.Fprintf(os.Stderr, "%s... %d/%d folders, %s elapsed\n", label, p.processed.Load(), total, elapsed)
				} else {
					fmt.Fprintf(os.Stderr, "%s... %s elapsed\n", label, elapsed)
				}
			case <-p.stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	return p
}

// Update records how many folders have been processed.
func (p *progressReporter) Update(_ string, processed, total int) {
	p.processed.Store(int64(processed))
	p.total.Store(int64(total))
}

func (p *progressReporter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
	})
}
