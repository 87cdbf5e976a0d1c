// internal/idparser/resolve.go
package idparser

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/joeyeti/datasworn/internal/idpattern"
	"github.com/joeyeti/datasworn/internal/types"
)

/*
 * Resolution of parsed IDs against a content tree.
 *
 * The walk follows the bindings of a ParsedID from the rules-package root:
 *   - package: one package, or every package for "*"
 *   - key / index: one entry of the symbol's property, or all entries for "*"
 *   - recursive chain: every chain of 1..CollectionDepthMax collection keys
 *     under the symbol's property, filtered by the glob of the bound span
 *
 * Recursive chains are enumerated once and glob-matched, so a "**" that can
 * match a chain in several ways still yields the chain once. Dictionary keys
 * are visited in sorted order and the final matches are sorted by ID, making
 * wildcard expansion deterministic.
 */

// Tree maps rules-package IDs to their decoded root nodes.
type Tree map[string]types.Node

// Match is one node addressed by an ID.
type Match struct {
	ID       string // concrete ID with wildcards replaced by the keys walked
	TypePath string
	Node     types.Node
	Segments [][]string // concrete path elements per type group
}

type cursor struct {
	node   types.Node
	groups [][]string
}

func (c cursor) extend(node types.Node, elems ...string) cursor {
	groups := make([][]string, len(c.groups))
	copy(groups, c.groups)
	last := len(groups) - 1
	groups[last] = append(append([]string(nil), groups[last]...), elems...)
	return cursor{node: node, groups: groups}
}

// Resolve returns every node of tree addressed by id.
// A wildcard ID with no matches yields an empty result. A non-wildcard ID
// returns ErrNotFound when absent and ErrAmbiguousResolution when the tree
// holds more than one node at its location.
func (p *Parser) Resolve(tree Tree, id string) ([]Match, error) {
	parsed, err := p.Parse(id)
	if err != nil {
		return nil, err
	}
	return ResolveParsed(tree, parsed)
}

// Get resolves a non-wildcard ID to exactly one node.
func (p *Parser) Get(tree Tree, id string) (Match, error) {
	parsed, err := p.Parse(id)
	if err != nil {
		return Match{}, err
	}
	if parsed.Wildcard {
		return Match{}, fmt.Errorf("%w: wildcard ID %q addresses more than one node", types.ErrInvalidIDShape, id)
	}
	matches, err := ResolveParsed(tree, parsed)
	if err != nil {
		return Match{}, err
	}
	return matches[0], nil
}

// ResolveParsed walks tree following the bindings of parsed.
func ResolveParsed(tree Tree, parsed *ParsedID) ([]Match, error) {
	var cursors []cursor
	for gi, group := range parsed.Groups {
		for _, b := range group {
			if b.Symbol.Kind == idpattern.SymbolRulesPackage {
				cursors = rootCursors(tree, b.Segments[0], len(parsed.Groups))
				continue
			}
			var next []cursor
			for _, c := range cursors {
				next = append(next, step(c, b)...)
			}
			cursors = next
		}
		if gi < len(parsed.Groups)-1 {
			cursors = openGroup(cursors)
		}
	}

	matches := make([]Match, 0, len(cursors))
	seen := make(map[string]bool, len(cursors))
	for _, c := range cursors {
		id, err := parsed.pattern.Format(c.groups)
		if err != nil {
			return nil, err
		}
		if parsed.Wildcard && seen[id] {
			continue
		}
		seen[id] = true
		matches = append(matches, Match{ID: id, TypePath: parsed.TypePath, Node: c.node, Segments: c.groups})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	if !parsed.Wildcard {
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, parsed.Raw)
		case 1:
		default:
			return nil, fmt.Errorf("%w: %s matched %d nodes", types.ErrAmbiguousResolution, parsed.Raw, len(matches))
		}
	}
	return matches, nil
}

func rootCursors(tree Tree, seg types.PathSegment, groups int) []cursor {
	var out []cursor
	for _, pkg := range selectKeys(tree, seg) {
		c := cursor{node: tree[pkg], groups: make([][]string, 1, groups)}
		c.groups[0] = []string{pkg}
		out = append(out, c)
	}
	return out
}

// openGroup starts an empty type group on each cursor.
func openGroup(cursors []cursor) []cursor {
	out := make([]cursor, len(cursors))
	for i, c := range cursors {
		groups := make([][]string, len(c.groups), len(c.groups)+1)
		copy(groups, c.groups)
		out[i] = cursor{node: c.node, groups: append(groups, nil)}
	}
	return out
}

func step(c cursor, b Binding) []cursor {
	switch b.Symbol.Kind {
	case idpattern.SymbolIndex:
		arr, _ := c.node[b.Symbol.Property].([]any)
		var out []cursor
		for _, i := range selectIndices(arr, b.Segments[0]) {
			if child, ok := arr[i].(map[string]any); ok {
				out = append(out, c.extend(child, strconv.Itoa(i)))
			}
		}
		return out

	case idpattern.SymbolRecursiveDictKeys:
		dict, _ := c.node[b.Symbol.Property].(map[string]any)
		var out []cursor
		walkChains(dict, b.Symbol.RecursiveProperty, nil, func(keys []string, node types.Node) {
			if globMatch(b.Segments, keys) {
				out = append(out, c.extend(node, keys...))
			}
		})
		return out

	default:
		dict, _ := c.node[b.Symbol.Property].(map[string]any)
		var out []cursor
		for _, key := range selectKeys(dict, b.Segments[0]) {
			if child, ok := dict[key].(map[string]any); ok {
				out = append(out, c.extend(child, key))
			}
		}
		return out
	}
}

// walkChains visits every chain of collection keys under dict, descending
// through recursiveProperty no deeper than CollectionDepthMax.
func walkChains(dict map[string]any, recursiveProperty string, trail []string, visit func([]string, types.Node)) {
	if len(trail) >= types.CollectionDepthMax {
		return
	}
	for _, key := range sortedKeys(dict) {
		child, ok := dict[key].(map[string]any)
		if !ok {
			continue
		}
		keys := append(append([]string(nil), trail...), key)
		visit(keys, child)
		sub, _ := child[recursiveProperty].(map[string]any)
		walkChains(sub, recursiveProperty, keys, visit)
	}
}

// globMatch reports whether keys matches the segment pattern. "*" matches one
// key and "**" matches zero or more.
func globMatch(pattern []types.PathSegment, keys []string) bool {
	if len(pattern) == 0 {
		return len(keys) == 0
	}
	seg := pattern[0]
	if seg.Globstar {
		if globMatch(pattern[1:], keys) {
			return true
		}
		return len(keys) > 0 && globMatch(pattern, keys[1:])
	}
	if len(keys) == 0 {
		return false
	}
	if !seg.Wildcard && seg.Key != keys[0] {
		return false
	}
	return globMatch(pattern[1:], keys[1:])
}

func selectKeys[V any](dict map[string]V, seg types.PathSegment) []string {
	if seg.Wildcard {
		return sortedKeys(dict)
	}
	if _, ok := dict[seg.Key]; ok {
		return []string{seg.Key}
	}
	return nil
}

func selectIndices(arr []any, seg types.PathSegment) []int {
	if seg.Wildcard {
		out := make([]int, len(arr))
		for i := range arr {
			out[i] = i
		}
		return out
	}
	if seg.Index >= 0 && seg.Index < len(arr) {
		return []int{seg.Index}
	}
	return nil
}

func sortedKeys[V any](dict map[string]V) []string {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
