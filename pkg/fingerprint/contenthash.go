package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"dupmark/pkg/collector"
	"dupmark/pkg/storage"
)

// contentHashStrategy keys files by the SHA-256 digest of their contents.
type contentHashStrategy struct {
	store *storage.Storage
}

func (s *contentHashStrategy) Kind() Kind {
	return ContentHash
}

func (s *contentHashStrategy) Fingerprint(entry collector.FileEntry) (Fingerprint, error) {
	sum, err := computeHash(s.store, entry.Path)
	if err != nil {
		return "", unavailable(entry, err)
	}

	return Fingerprint("sha256:" + sum), nil
}

// computeHash returns the hex SHA-256 digest of the file at path.
func computeHash(store *storage.Storage, path string) (string, error) {
	f, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
