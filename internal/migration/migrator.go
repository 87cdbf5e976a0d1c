// internal/migration/migrator.go
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

// Config customizes a Migrator beyond the built-in rules.
type Config struct {
	// Renames are generated after the built-in key renames.
	Renames []PackageRenames

	// IDMap maps legacy IDs directly to current IDs and takes priority over
	// every rule. A nil value marks the legacy ID as removed.
	IDMap map[string]*string

	// Logger receives per-string outcomes of document migration.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Result describes how a legacy ID was migrated.
type Result struct {
	OldID   string
	NewID   string // empty when Removed
	Type    typeid.TypeID
	Removed bool
	Rule    *IdReplacer // nil when the explicit ID map decided
}

// Migrator rewrites legacy IDs. Immutable after New; safe for concurrent use.
type Migrator struct {
	topo   *typeid.Topology
	rules  ReplacementMap
	idMap  map[string]*string
	logger *slog.Logger
}

var (
	defaultMigratorOnce sync.Once
	defaultMigrator     *Migrator
)

// Default returns a migrator with the built-in rules only.
// Panics if the built-in rules are malformed; that is a programming error.
func Default() *Migrator {
	defaultMigratorOnce.Do(func() {
		m, err := New(typeid.Default(), Config{})
		if err != nil {
			panic(fmt.Sprintf("migration: invalid built-in rules: %v", err))
		}
		defaultMigrator = m
	})
	return defaultMigrator
}

// New builds the replacement map for topo.
// Returns ErrInvalidReplacer if any generated rule is malformed.
func New(topo *typeid.Topology, cfg Config) (*Migrator, error) {
	renames := append(append([]PackageRenames(nil), builtinRenames...), cfg.Renames...)
	rules, err := BuildReplacementMap(topo, renames)
	if err != nil {
		return nil, err
	}

	idMap := make(map[string]*string, len(cfg.IDMap))
	for k, v := range cfg.IDMap {
		idMap[k] = v
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Migrator{topo: topo, rules: rules, idMap: idMap, logger: logger}, nil
}

// Rules returns a copy of the ordered rules of typ.
func (m *Migrator) Rules(typ typeid.TypeID) []IdReplacer {
	return append([]IdReplacer(nil), m.rules[typ]...)
}

// Types returns the types with rules, in no-hint lookup order.
func (m *Migrator) Types() []typeid.TypeID {
	return append([]typeid.TypeID(nil), lookupOrder...)
}

// Lookup finds the migration of oldID. With a type hint that has rules, only
// that type's rules are tried; otherwise every type is tried in lookup order
// and the first matching rule wins.
// Returns ErrNoMigrationAvailable when nothing matches.
func (m *Migrator) Lookup(oldID string, hint typeid.TypeID) (Result, error) {
	if newID, ok := m.idMap[oldID]; ok {
		if newID == nil {
			return Result{OldID: oldID, Removed: true}, nil
		}
		return Result{OldID: oldID, NewID: *newID, Type: typeOf(*newID)}, nil
	}

	if rs, ok := m.rules[hint]; ok {
		if res, ok := apply(oldID, hint, rs); ok {
			return res, nil
		}
		return Result{}, fmt.Errorf("%w: %s as %s", types.ErrNoMigrationAvailable, oldID, hint)
	}

	for _, typ := range lookupOrder {
		if res, ok := apply(oldID, typ, m.rules[typ]); ok {
			return res, nil
		}
	}
	return Result{}, fmt.Errorf("%w: %s", types.ErrNoMigrationAvailable, oldID)
}

func apply(oldID string, typ typeid.TypeID, rs []IdReplacer) (Result, bool) {
	for i := range rs {
		newID, ok := rs[i].Apply(oldID)
		if !ok {
			continue
		}
		return Result{OldID: oldID, NewID: newID, Type: typ, Removed: rs[i].Removed, Rule: &rs[i]}, true
	}
	return Result{}, false
}

// typeOf returns the last type of an ID's dotted type path.
func typeOf(id string) typeid.TypeID {
	prefix, _, _ := strings.Cut(id, types.PrefixSep)
	if i := strings.LastIndex(prefix, types.TypeSep); i >= 0 {
		prefix = prefix[i+1:]
	}
	return typeid.TypeID(prefix)
}

// UpdateID returns the migrated form of oldID, or oldID itself when no
// migration is known or the legacy ID was removed.
func (m *Migrator) UpdateID(oldID string, hint typeid.TypeID) string {
	res, err := m.Lookup(oldID, hint)
	if err != nil || res.Removed {
		return oldID
	}
	return res.NewID
}

// UpdateIdsInString migrates a scalar value visited while walking a decoded
// document. Non-strings and strings without "/" pass through; strings with
// Markdown link or macro syntax have their references rewritten; anything
// else is treated as a complete ID.
func (m *Migrator) UpdateIdsInString(key string, value any) any {
	s, ok := value.(string)
	if !ok || !strings.Contains(s, types.PathKeySep) {
		return value
	}
	if IsMarkdown(s) {
		return m.UpdateIdsInMarkdown(s)
	}
	return m.UpdateID(s, "")
}

// IsMarkdown reports whether s may hold Markdown ID references.
func IsMarkdown(s string) bool {
	return strings.Contains(s, "[") || strings.Contains(s, "{{")
}

// IsNoMigration reports whether err means no rule matched.
func IsNoMigration(err error) bool {
	return errors.Is(err, types.ErrNoMigrationAvailable)
}
