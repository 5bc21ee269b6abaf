package fingerprint

import (
	"strconv"

	"dupmark/pkg/collector"
	"dupmark/pkg/storage"
)

// quickStrategy keys files by (size, MIME type). Distinct files sharing
// both collide.
type quickStrategy struct {
	store *storage.Storage
}

func (s *quickStrategy) Kind() Kind {
	return Quick
}

func (s *quickStrategy) Fingerprint(entry collector.FileEntry) (Fingerprint, error) {
	mime, err := s.store.DetectContentType(entry.Path)
	if err != nil {
		return "", unavailable(entry, err)
	}

	return Fingerprint("quick:" + strconv.FormatInt(entry.Size, 10) + ":" + mime), nil
}
