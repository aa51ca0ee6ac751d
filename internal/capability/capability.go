package capability

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ID is an opaque, totally-ordered identifier for a registered operation.
//
// IDs are dotted paths ("user.create", "config.network.set"). They are
// NFC-normalized at construction so that two visually identical paths
// always compare equal, and never mutated afterwards.
type ID string

// NewID normalizes and validates a capability path.
//
// A valid path has at least two non-empty dot-separated segments: the
// first segment is the noun, the last is the verb. Intermediate segments
// namespace the noun.
func NewID(path string) (ID, error) {
	normalized := norm.NFC.String(path)
	if err := validatePath(normalized); err != nil {
		return "", err
	}
	return ID(normalized), nil
}

// MustID is like NewID but panics on invalid input.
// Use only in tests or with compile-time constant paths.
func MustID(path string) ID {
	id, err := NewID(path)
	if err != nil {
		panic(err)
	}
	return id
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("capability path is empty")
	}
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return fmt.Errorf("capability path %q must have at least noun.verb segments", path)
	}
	for _, seg := range segments {
		if seg == "" {
			return fmt.Errorf("capability path %q contains an empty segment", path)
		}
	}
	return nil
}

// String returns the path form of the ID.
func (id ID) String() string { return string(id) }

// Noun returns the first path segment ("user" for "user.create").
func (id ID) Noun() string {
	path := string(id)
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// Verb returns the last path segment ("create" for "user.create").
func (id ID) Verb() string {
	path := string(id)
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Less reports whether id sorts before other. IDs are ordered by their
// normalized byte representation, which is total because normalization
// happens at construction.
func (id ID) Less(other ID) bool { return id < other }
