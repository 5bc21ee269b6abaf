package collector

import (
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"dupmark/pkg/storage"
)

// CapturedAt returns the EXIF capture time of a JPEG or TIFF photo.
// Any other file, or a photo without a readable DateTime tag, reports its
// modification time.
func CapturedAt(store *storage.Storage, entry FileEntry) time.Time {
	switch entry.Extension() {
	case "jpg", "tif", "tiff":
	default:
		return entry.ModTime
	}

	f, err := store.Open(entry.Path)
	if err != nil {
		return entry.ModTime
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return entry.ModTime
	}

	taken, err := x.DateTime()
	if err != nil {
		return entry.ModTime
	}

	return taken
}
