package types

import "errors"

// Sentinel errors for Datasworn ID operations.
// Callers match with errors.Is; producers wrap with fmt.Errorf("...: %w").
var (
	// ErrInvalidIDShape indicates an ID's type prefix or path matches no known pattern.
	ErrInvalidIDShape = errors.New("invalid ID shape")

	// ErrUnknownType indicates a type ID with no entry, or no pairing, in the type topology.
	ErrUnknownType = errors.New("unknown type ID")

	// ErrNotFound indicates a well-formed ID addresses no node in the content tree.
	ErrNotFound = errors.New("ID not found")

	// ErrNoMigrationAvailable indicates no legacy rule matched an ID.
	ErrNoMigrationAvailable = errors.New("no migration available")

	// ErrAmbiguousResolution indicates a non-wildcard ID addresses more than one node.
	ErrAmbiguousResolution = errors.New("ambiguous ID resolution")

	// ErrInvalidComposition indicates a pattern builder step that does not fit the current node type.
	ErrInvalidComposition = errors.New("invalid pattern composition")

	// ErrNoRecursiveProperty indicates a recursive key chain on a type that cannot nest within itself.
	ErrNoRecursiveProperty = errors.New("type has no recursive property")

	// ErrDepthBounds indicates recursion bounds outside CollectionDepthMin..CollectionDepthMax.
	ErrDepthBounds = errors.New("recursion bounds outside collection depth limits")

	// ErrInvalidReplacer indicates a malformed legacy migration rule.
	ErrInvalidReplacer = errors.New("invalid replacement rule")
)
