// Package types provides the identifier vocabulary shared across Datasworn components.
//
// Zero-dependency design: types.go, path.go and errors.go use only the standard
// library so the ID algebra can be imported without storage or transport deps.
// Run identifiers in ids.go import uuid but are isolated from the rest.
package types

// RunID identifies one recorded migration run.
// UUIDv7 time-ordering keeps run history sorted by start time in B-tree indexes.
type RunID string

// Node is a decoded content node. The loader produces these from rules-package JSON.
type Node = map[string]any

// ID lexical elements.
const (
	// PathKeySep joins dictionary keys and indices on the right side of an ID.
	PathKeySep = "/"

	// TypeSep joins type IDs on the left side and type groups on the right side.
	TypeSep = "."

	// PrefixSep divides the type prefix from the path.
	PrefixSep = ":"

	// WildcardString matches any single key or index.
	WildcardString = "*"

	// GlobstarString matches any number of levels of recursive collections.
	GlobstarString = "**"
)

// Well-known property keys on content nodes.
const (
	// IDKey holds the string identity of a node.
	IDKey = "_id"

	// CollectionsKey holds a collection's dictionary of child collections.
	CollectionsKey = "collections"

	// ContentsKey holds a collection's dictionary of collectable items.
	ContentsKey = "contents"
)

// Structural limits of the content tree.
const (
	// CollectionDepthMin is the minimum nesting depth of a collection,
	// relative to the root dictionary for its type.
	CollectionDepthMin = 1

	// CollectionDepthMax is the maximum nesting depth of a collection.
	// Recursive resolution never descends further, so a tree walk is bounded.
	CollectionDepthMax = 4
)
