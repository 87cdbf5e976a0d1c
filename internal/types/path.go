// internal/types/path.go
package types

import (
	"strconv"
	"strings"
)

/*
 * Path segments of a Datasworn ID.
 *
 * The right side of an ID splits into PathSegments: dictionary keys, array
 * indices, single-level wildcards and globstars. The parser produces these;
 * the resolver consumes them when walking the content tree.
 *
 * Key types:
 *   - PathSegment: one key, index, "*" or "**"
 *
 * Dependencies: None (standard library only)
 */

// PathSegment represents one component of an ID path.
type PathSegment struct {
	Key      string // dictionary key (mutually exclusive with Index/Wildcard/Globstar)
	Index    int    // array index (mutually exclusive with Key/Wildcard/Globstar)
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool   // "*": any single key or index
	Globstar bool   // "**": zero or more recursive levels
}

// ParseSegment classifies one raw path element.
// Digit-only elements become indices; everything else is a key.
func ParseSegment(s string) PathSegment {
	switch s {
	case WildcardString:
		return PathSegment{Wildcard: true}
	case GlobstarString:
		return PathSegment{Globstar: true}
	}
	if isDigits(s) {
		if n, err := strconv.Atoi(s); err == nil {
			return PathSegment{Index: n, IsIndex: true}
		}
	}
	return PathSegment{Key: s}
}

// ParseSegments splits a slash-separated path into segments.
func ParseSegments(path string) []PathSegment {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, PathKeySep)
	segs := make([]PathSegment, len(parts))
	for i, p := range parts {
		segs[i] = ParseSegment(p)
	}
	return segs
}

// IsWild reports whether the segment expands to more than one location.
func (s PathSegment) IsWild() bool {
	return s.Wildcard || s.Globstar
}

// String renders the segment as it appears in an ID.
func (s PathSegment) String() string {
	switch {
	case s.Globstar:
		return GlobstarString
	case s.Wildcard:
		return WildcardString
	case s.IsIndex:
		return strconv.Itoa(s.Index)
	default:
		return s.Key
	}
}

// JoinSegments renders segments joined by PathKeySep.
func JoinSegments(segs []PathSegment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, PathKeySep)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
