// Package progress reports how far a scan has advanced through the folders
// of a tree.
package progress

// Callback receives the folder just finished and the number of folders
// processed so far out of total.
type Callback func(folder string, processed, total int)

// Emit calls cb with clamped processed/total values.
// It is a no-op when cb is nil or total is non-positive.
func Emit(cb Callback, folder string, processed, total int) {
	if cb == nil || total <= 0 {
		return
	}

	processed = max(processed, 0)
	processed = min(processed, total)

	cb(folder, processed, total)
}
