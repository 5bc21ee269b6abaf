// Package fingerprint computes comparison keys for files. Two files with
// equal fingerprints are probable duplicates. A run selects exactly one
// strategy and uses it for every file.
package fingerprint

import (
	"errors"
	"fmt"

	"dupmark/pkg/collector"
	"dupmark/pkg/storage"
)

var (
	// ErrUnavailable is wrapped by every error a Strategy returns.
	ErrUnavailable = errors.New("fingerprint unavailable")
	// ErrUnknownKind is returned when parsing an unsupported strategy name.
	ErrUnknownKind = errors.New("unknown fingerprint key")
)

// Kind selects a fingerprint strategy.
type Kind int

const (
	// Quick compares byte size and sniffed MIME type.
	Quick Kind = iota
	// ContentHash compares a SHA-256 digest of the whole file.
	ContentHash
)

var kindNames = map[Kind]string{
	Quick:       "quick",
	ContentHash: "content-hash",
}

// ParseKind converts "quick" or "content-hash" to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return Quick, fmt.Errorf("%w %q (want quick or content-hash)", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Set implements pflag.Value.
func (k *Kind) Set(s string) error {
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Type implements pflag.Value.
func (k *Kind) Type() string {
	return "key"
}

// Fingerprint is a comparable key. Values carry a strategy prefix, so keys
// from different strategies never compare equal.
type Fingerprint string

// Isolated returns a fingerprint unique to path. Callers bucket files whose
// fingerprint is unavailable under it so unreadable files never group.
func Isolated(path string) Fingerprint {
	return Fingerprint("unavailable:" + path)
}

// Strategy computes fingerprints. A failure is returned as an error wrapping
// ErrUnavailable; it is never coerced into a shared value.
type Strategy interface {
	Kind() Kind
	Fingerprint(entry collector.FileEntry) (Fingerprint, error)
}

// New returns the strategy for kind reading through store.
func New(kind Kind, store *storage.Storage) (Strategy, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}

	switch kind {
	case Quick:
		return &quickStrategy{store: store}, nil
	case ContentHash:
		return &contentHashStrategy{store: store}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind.String())
	}
}

func unavailable(entry collector.FileEntry, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, entry.Path, err)
}
