package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// MarkPrefix starts the marker inserted into renamed duplicates.
const MarkPrefix = "DUPLICATE_"

var (
	// ErrUnknownPosition is returned when parsing an unsupported position.
	ErrUnknownPosition = errors.New("unknown rename position")

	prefixMark = regexp.MustCompile(`^DUPLICATE_([0-9]{4,})_(.+)$`)
	suffixMark = regexp.MustCompile(`^(.*)_DUPLICATE_([0-9]{4,})$`)
)

// Position selects where the marker goes in a renamed file name.
type Position int

const (
	// Prefix renames "a.jpg" to "DUPLICATE_<tag>_a.jpg".
	Prefix Position = iota
	// Suffix renames "a.jpg" to "a_DUPLICATE_<tag>.jpg".
	Suffix
)

// ParsePosition converts "prefix" or "suffix" to a Position.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "prefix":
		return Prefix, nil
	case "suffix":
		return Suffix, nil
	default:
		return Prefix, fmt.Errorf("%w %q (want prefix or suffix)", ErrUnknownPosition, s)
	}
}

func (p Position) String() string {
	switch p {
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// Set implements pflag.Value.
func (p *Position) Set(s string) error {
	parsed, err := ParsePosition(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value.
func (p *Position) Type() string {
	return "position"
}

// MarkedName returns the base name a duplicate is renamed to.
// The suffix form keeps the original extension and adds no trailing dot
// when there is none.
func MarkedName(name string, tag int, pos Position) string {
	marker := MarkPrefix + strconv.Itoa(tag)

	if pos == Suffix {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		return stem + "_" + marker + ext
	}

	return marker + "_" + name
}

// StripMark reverses MarkedName for the given position. ok is false when
// name carries no marker in that position.
func StripMark(name string, pos Position) (original string, tag int, ok bool) {
	if pos == Suffix {
		ext := filepath.Ext(name)
		if m := suffixMark.FindStringSubmatch(strings.TrimSuffix(name, ext)); m != nil {
			tag, _ = strconv.Atoi(m[2])
			return m[1] + ext, tag, true
		}
		return name, 0, false
	}

	if m := prefixMark.FindStringSubmatch(name); m != nil {
		tag, _ = strconv.Atoi(m[1])
		return m[2], tag, true
	}

	return name, 0, false
}
