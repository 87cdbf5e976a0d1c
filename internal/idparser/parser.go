// Package idparser validates Datasworn IDs against their type path's pattern
// and resolves them to nodes of a loaded content tree.
package idparser

import (
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/joeyeti/datasworn/internal/idpattern"
	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

/*
 * Shape-only parsing of IDs.
 *
 * Parse states:
 *   1. split at the first ":" and look up the dotted type path
 *   2. match the path side against the type path's matcher; IDs without
 *      "*" use the exact matcher, which accepts no wildcard elements
 *   3. bind each path element to the pattern symbol it fills
 *
 * Binding is positional. The rules-package symbol and every plain key or
 * index take one element; a recursive key chain takes whatever is left over.
 * A "**" is only legal inside that recursive span.
 *
 * Parsed IDs are kept in a bounded LRU cache, since the same IDs recur across
 * documents. Callers receive copies, so the cached value never changes.
 */

// DefaultCacheSize bounds the number of cached parsed IDs.
const DefaultCacheSize = 4096

// Binding is a pattern symbol and the path elements that fill it.
type Binding struct {
	Symbol   idpattern.PathSymbol
	Segments []types.PathSegment
}

// ParsedID is a syntactically valid ID, split into its type groups.
type ParsedID struct {
	Raw      string
	TypePath string
	Types    []typeid.TypeID
	Package  string
	Wildcard bool

	// Groups holds the bindings of each type group in order.
	Groups [][]Binding

	pattern *idpattern.IdPattern
}

// String returns the ID as parsed.
func (p *ParsedID) String() string {
	return p.Raw
}

// Segments returns the path elements of each type group.
func (p *ParsedID) Segments() [][]types.PathSegment {
	out := make([][]types.PathSegment, len(p.Groups))
	for i, g := range p.Groups {
		for _, b := range g {
			out[i] = append(out[i], b.Segments...)
		}
	}
	return out
}

// clone copies p deeply enough that changes to the copy's slices never
// reach p.
func (p *ParsedID) clone() *ParsedID {
	c := *p
	c.Types = slices.Clone(p.Types)
	c.Groups = make([][]Binding, len(p.Groups))
	for i, g := range p.Groups {
		c.Groups[i] = make([]Binding, len(g))
		for j, b := range g {
			c.Groups[i][j] = Binding{Symbol: b.Symbol, Segments: slices.Clone(b.Segments)}
		}
	}
	return &c
}

// Pattern returns a copy of the pattern the ID was matched against.
func (p *ParsedID) Pattern() *idpattern.IdPattern {
	return p.pattern.Clone()
}

// Parser parses IDs against a pattern registry.
// Safe for concurrent use.
type Parser struct {
	reg   *idpattern.Registry
	cache *lru.Cache[string, *ParsedID]
}

// New creates a parser over reg caching up to cacheSize parsed IDs.
// A non-positive cacheSize selects DefaultCacheSize.
func New(reg *idpattern.Registry, cacheSize int) (*Parser, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *ParsedID](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}
	return &Parser{reg: reg, cache: cache}, nil
}

// Registry returns the pattern registry the parser matches against.
func (p *Parser) Registry() *idpattern.Registry {
	return p.reg
}

// Valid reports whether id parses.
func (p *Parser) Valid(id string) bool {
	_, err := p.Parse(id)
	return err == nil
}

// Parse checks the shape of id and binds its elements to pattern symbols.
// Returns ErrInvalidIDShape for an unknown type path or a path that does not
// match the type path's pattern.
func (p *Parser) Parse(id string) (*ParsedID, error) {
	if cached, ok := p.cache.Get(id); ok {
		return cached.clone(), nil
	}

	left, right, ok := strings.Cut(id, types.PrefixSep)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no type prefix", types.ErrInvalidIDShape, id)
	}
	mode := idpattern.Exact
	if strings.Contains(right, types.WildcardString) {
		mode = idpattern.Wildcard
	}
	re, err := p.reg.Matcher(left, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown type path %q", types.ErrInvalidIDShape, left)
	}
	m := re.FindStringSubmatch(right)
	if m == nil {
		return nil, fmt.Errorf("%w: %q does not match %s", types.ErrInvalidIDShape, id, left)
	}

	pattern, err := p.reg.Pattern(left)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedID{
		Raw:      id,
		TypePath: left,
		Types:    pattern.Types(),
		pattern:  pattern,
	}

	for _, f := range pattern.Formats() {
		raw := m[re.SubexpIndex(string(f.TypeID))]
		group, err := bind(f, strings.Split(raw, types.PathKeySep))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", types.ErrInvalidIDShape, id, err)
		}
		parsed.Groups = append(parsed.Groups, group)
	}

	parsed.Package = parsed.Groups[0][0].Segments[0].String()
	for _, seg := range parsed.Segments() {
		for _, s := range seg {
			if s.IsWild() {
				parsed.Wildcard = true
			}
		}
	}

	p.cache.Add(id, parsed)
	return parsed.clone(), nil
}

// bind assigns path elements to the symbols of one type group.
func bind(f idpattern.PathFormat, parts []string) ([]Binding, error) {
	fixed := 0
	for _, s := range f.Symbols {
		if s.Kind != idpattern.SymbolRecursiveDictKeys {
			fixed++
		}
	}
	span := len(parts) - fixed
	rec := f.RecursiveIndex()
	if rec < 0 && span != 0 {
		return nil, fmt.Errorf("type group %s has %d elements, want %d", f.TypeID, len(parts), fixed)
	}
	if rec >= 0 && span < 1 {
		return nil, fmt.Errorf("type group %s has no collection keys", f.TypeID)
	}

	out := make([]Binding, 0, len(f.Symbols))
	pos := 0
	for i, s := range f.Symbols {
		n := 1
		if i == rec {
			n = span
		}
		b := Binding{Symbol: s}
		for _, raw := range parts[pos : pos+n] {
			seg := types.ParseSegment(raw)
			if seg.Globstar && i != rec {
				return nil, fmt.Errorf("%q outside a recursive key chain", types.GlobstarString)
			}
			if s.Kind == idpattern.SymbolIndex && !seg.IsIndex && idpattern.Index.MatchString(raw) {
				return nil, fmt.Errorf("index %s is out of range", raw)
			}
			if !seg.IsWild() && seg.IsIndex != (s.Kind == idpattern.SymbolIndex) {
				return nil, fmt.Errorf("element %q does not fit %s", raw, s.Kind)
			}
			b.Segments = append(b.Segments, seg)
		}
		if i == rec && !hasGlobstar(b.Segments) && (n < s.MinReps || n > s.MaxReps) {
			return nil, fmt.Errorf("%w: %d collection keys", types.ErrDepthBounds, n)
		}
		out = append(out, b)
		pos += n
	}
	return out, nil
}

func hasGlobstar(segs []types.PathSegment) bool {
	for _, s := range segs {
		if s.Globstar {
			return true
		}
	}
	return false
}
