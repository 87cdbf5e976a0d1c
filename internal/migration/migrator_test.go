package migration

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

func TestUpdateID(t *testing.T) {
	m := Default()

	tests := []struct {
		name  string
		oldID string
		want  string
	}{
		{"renamed collection", "starforged/collections/oracles/factions", "oracle_collection:starforged/faction"},
		{"renamed nested collection", "starforged/collections/oracles/planets/furnace", "oracle_collection:starforged/planet/furnace"},
		{"cascaded rename", "starforged/oracles/factions/name/legacy", "oracle_rollable:starforged/faction/name/legacy"},
		{"multi-key rename wins", "starforged/oracles/derelicts/zones/access/area", "oracle_rollable:starforged/derelict/zone/access/area"},
		{"cascaded rename four keys deep", "starforged/oracles/planets/desert/settlements/terminus", "oracle_rollable:starforged/planet/desert/settlements/terminus"},
		{"renamed deep collection", "starforged/collections/oracles/derelicts/zones/access", "oracle_collection:starforged/derelict/zone/access"},
		{"generic rollable at depth ceiling", "classic/oracles/a/b/c/d/e", "oracle_rollable:classic/a/b/c/d/e"},
		{"generic rollable beyond depth ceiling", "classic/oracles/a/b/c/d/e/f", "classic/oracles/a/b/c/d/e/f"},
		{"single-key rename", "starforged/oracles/derelicts/type", "oracle_rollable:starforged/derelict/type"},
		{"hand rule beats cascade", "starforged/oracles/characters/name/given", "oracle_rollable:starforged/character/name/given_name"},
		{"generic rollable", "classic/oracles/action_theme/action", "oracle_rollable:classic/action_theme/action"},
		{"move oracle", "starforged/oracles/moves/pay_the_price", "move.oracle_rollable:starforged/fate/pay_the_price.pay_the_price"},
		{"ask the oracle", "classic/oracles/moves/ask_the_oracle/likely", "move.oracle_rollable:classic/fate/ask_the_oracle.likely"},
		{"delve move oracle", "delve/oracles/moves/delve_the_depths/wits", "move.oracle_rollable:delve/delve/delve_the_depths.wits"},
		{"move", "starforged/moves/adventure/face_danger", "move:starforged/adventure/face_danger"},
		{"move category", "starforged/collections/moves/adventure", "move_category:starforged/adventure"},
		{"asset", "starforged/assets/path/ace", "asset:starforged/path/ace"},
		{"asset ability", "starforged/assets/path/ace/abilities/0", "asset.ability:starforged/path/ace.0"},
		{"asset ability move", "starforged/assets/path/ace/abilities/1/moves/shoot", "asset.ability.move:starforged/path/ace.1.shoot"},
		{"npc variant", "classic/npcs/firstborn/elf/variants/elder", "npc.variant:classic/firstborn/elf.elder"},
		{"wildcard package", "*/moves/*/face_danger", "move:*/*/face_danger"},
		{"truth", "starforged/truths/cataclysm", "truth:starforged/cataclysm"},
		{"removed keeps input", "starforged/collections/oracles/moves", "starforged/collections/oracles/moves"},
		{"current ID unchanged", "move:starforged/adventure/face_danger", "move:starforged/adventure/face_danger"},
		{"unknown shape unchanged", "starforged/nothing/here", "starforged/nothing/here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.UpdateID(tt.oldID, ""))
		})
	}
}

func TestLookup(t *testing.T) {
	m := Default()

	t.Run("removed", func(t *testing.T) {
		res, err := m.Lookup("starforged/collections/oracles/moves/suffer", "")
		require.NoError(t, err)
		assert.True(t, res.Removed)
		assert.Empty(t, res.NewID)
		assert.Equal(t, typeid.OracleCollection, res.Type)
	})

	t.Run("removed at depth ceiling", func(t *testing.T) {
		res, err := m.Lookup("starforged/collections/oracles/moves/a/b/c", "")
		require.NoError(t, err)
		assert.True(t, res.Removed)
	})

	t.Run("rule reported", func(t *testing.T) {
		res, err := m.Lookup("starforged/oracles/factions/name", "")
		require.NoError(t, err)
		require.NotNil(t, res.Rule)
		assert.Equal(t, OriginRename, res.Rule.Origin)
		assert.Equal(t, typeid.OracleRollable, res.Type)
	})

	t.Run("hint restricts rules", func(t *testing.T) {
		res, err := m.Lookup("starforged/oracles/factions/name", typeid.OracleRollable)
		require.NoError(t, err)
		assert.Equal(t, "oracle_rollable:starforged/faction/name", res.NewID)

		_, err = m.Lookup("starforged/oracles/factions/name", typeid.Asset)
		assert.ErrorIs(t, err, types.ErrNoMigrationAvailable)
		assert.True(t, IsNoMigration(err))
	})

	t.Run("hint without rules falls back", func(t *testing.T) {
		res, err := m.Lookup("starforged/moves/adventure/face_danger", typeid.Row)
		require.NoError(t, err)
		assert.Equal(t, "move:starforged/adventure/face_danger", res.NewID)
	})

	t.Run("no migration", func(t *testing.T) {
		_, err := m.Lookup("starforged/nothing/here", "")
		assert.ErrorIs(t, err, types.ErrNoMigrationAvailable)
	})
}

func TestIDMapTakesPriority(t *testing.T) {
	custom := "oracle_rollable:starforged/faction/custom"
	m, err := New(typeid.Default(), Config{IDMap: map[string]*string{
		"starforged/oracles/factions/name": &custom,
		"starforged/moves/adventure/gone":  nil,
	}})
	require.NoError(t, err)

	assert.Equal(t, custom, m.UpdateID("starforged/oracles/factions/name", ""))

	res, err := m.Lookup("starforged/moves/adventure/gone", "")
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Nil(t, res.Rule)
	assert.Equal(t, "starforged/moves/adventure/gone", m.UpdateID("starforged/moves/adventure/gone", ""))
}

func TestRuleOrdering(t *testing.T) {
	m := Default()

	for _, lt := range legacyTypes {
		rs := m.Rules(lt.typ)
		require.NotEmpty(t, rs, lt.typ)
		assert.Equal(t, OriginGeneric, rs[len(rs)-1].Origin, "generic rule of %s must be last", lt.typ)
	}

	for _, typ := range m.Types() {
		rs := m.Rules(typ)
		require.NotEmpty(t, rs, typ)
		for i := 1; i < len(rs); i++ {
			assert.LessOrEqual(t, compareReplacers(rs[i-1], rs[i]), 0, "%s rules %d and %d out of order", typ, i-1, i)
		}
	}

	collections := m.Rules(typeid.OracleCollection)
	assert.True(t, collections[0].Removed, "removed rules sort first")

	rollables := m.Rules(typeid.OracleRollable)
	zone, derelict := -1, -1
	for i, r := range rollables {
		switch {
		case strings.Contains(r.Pattern(), "derelicts/zones"):
			zone = i
		case strings.Contains(r.Pattern(), "/derelicts("):
			derelict = i
		}
	}
	require.NotEqual(t, -1, zone)
	require.NotEqual(t, -1, derelict)
	assert.Less(t, zone, derelict)
}

func TestCompareReplacersProperty(t *testing.T) {
	rs := Default().Rules(typeid.OracleRollable)
	rs = append(rs, Default().Rules(typeid.OracleCollection)...)
	n := len(rs)

	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("comparison is antisymmetric", prop.ForAll(
		func(i, j int) bool {
			return sign(compareReplacers(rs[i], rs[j])) == -sign(compareReplacers(rs[j], rs[i]))
		},
		gen.IntRange(0, n-1),
		gen.IntRange(0, n-1),
	))

	properties.Property("sorting is idempotent", prop.ForAll(
		func(seed int) bool {
			shuffled := append([]IdReplacer(nil), rs...)
			for i := range shuffled {
				j := (i*seed + seed) % len(shuffled)
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			}
			sortReplacers(shuffled)
			once := patterns(shuffled)
			sortReplacers(shuffled)
			return strings.Join(once, "\n") == strings.Join(patterns(shuffled), "\n")
		},
		gen.IntRange(1, 1000),
	))

	properties.TestingRun(t)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func patterns(rs []IdReplacer) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Pattern()
	}
	return out
}

func TestNewReplacerRejectsBadRules(t *testing.T) {
	_, err := newReplacer(`^(a$`, `x:${1}`, OriginHand)
	assert.ErrorIs(t, err, types.ErrInvalidReplacer)

	_, err = newReplacer(`^(a)$`, `x:${1}${2}`, OriginHand)
	assert.ErrorIs(t, err, types.ErrInvalidReplacer)
}

func TestValidate(t *testing.T) {
	topo := typeid.Default()

	bad, err := newReplacer(`^x$`, `bogus:thing`, OriginHand)
	require.NoError(t, err)
	assert.ErrorIs(t, ReplacementMap{typeid.Asset: {bad}}.Validate(topo), types.ErrInvalidReplacer)

	good, err := newReplacer(`^x$`, `asset:thing`, OriginHand)
	require.NoError(t, err)
	assert.ErrorIs(t, ReplacementMap{"bogus": {good}}.Validate(topo), types.ErrUnknownType)
	assert.NoError(t, ReplacementMap{typeid.Asset: {good}}.Validate(topo))
}

func TestUpdateIdsInString(t *testing.T) {
	m := Default()

	assert.Equal(t, 42, m.UpdateIdsInString("value", 42))
	assert.Equal(t, "Face Danger", m.UpdateIdsInString("name", "Face Danger"))
	assert.Equal(t, "move:starforged/adventure/face_danger",
		m.UpdateIdsInString("_id", "starforged/moves/adventure/face_danger"))
	assert.Equal(t, "See [Face Danger](id:move:starforged/adventure/face_danger).",
		m.UpdateIdsInString("text", "See [Face Danger](id:starforged/moves/adventure/face_danger)."))
}

func TestUpdateDocument(t *testing.T) {
	var logs bytes.Buffer
	m, err := New(typeid.Default(), Config{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)

	in := `{
		"text": "Roll on [Legacy](id:starforged/oracles/factions/name/legacy).",
		"_id": "starforged/moves/adventure/face_danger",
		"oracle": "starforged/oracles/unknown_thing/x/y/z/w",
		"value": 10,
		"name": "Face Danger"
	}`
	var out bytes.Buffer
	stats, err := m.UpdateDocument(strings.NewReader(in), &out)
	require.NoError(t, err)

	assert.Equal(t, `{
  "_id": "move:starforged/adventure/face_danger",
  "name": "Face Danger",
  "oracle": "starforged/oracles/unknown_thing/x/y/z/w",
  "value": 10,
  "text": "Roll on [Legacy](id:oracle_rollable:starforged/faction/name/legacy)."
}
`, out.String())

	assert.Equal(t, 4, stats.Strings)
	assert.Equal(t, 2, stats.Migrated)
	assert.Zero(t, stats.Removed)
	assert.Equal(t, []string{"starforged/oracles/unknown_thing/x/y/z/w"}, stats.Unmigrated)
	assert.Contains(t, logs.String(), "no migration for legacy ID")
}

func TestUpdateDocumentWildcardPackage(t *testing.T) {
	m := Default()
	in := `{"oracle":"*/oracles/core/action","moves":"*/moves/*/nothing/here/at_all"}`

	var out bytes.Buffer
	stats, err := m.UpdateDocument(strings.NewReader(in), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"oracle": "oracle_rollable:*/core/action"`)
	assert.Equal(t, "oracle_rollable:*/core/action", m.UpdateIdsInString("oracle", "*/oracles/core/action"))
	assert.Equal(t, 1, stats.Migrated)
	assert.Equal(t, []string{"*/moves/*/nothing/here/at_all"}, stats.Unmigrated)
}

func TestUpdateDocumentIsIdempotent(t *testing.T) {
	m := Default()
	in := `{"_id":"starforged/assets/path/ace","abilities":[{"_id":"starforged/assets/path/ace/abilities/0"}]}`

	var first, second bytes.Buffer
	_, err := m.UpdateDocument(strings.NewReader(in), &first)
	require.NoError(t, err)
	stats, err := m.UpdateDocument(bytes.NewReader(first.Bytes()), &second)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
	assert.Zero(t, stats.Migrated)
	assert.Empty(t, stats.Unmigrated)
	assert.Contains(t, first.String(), `"asset.ability:starforged/path/ace.0"`)
}

func TestUpdateDocumentRejectsInvalidJSON(t *testing.T) {
	_, err := Default().UpdateDocument(strings.NewReader(`{"_id":`), &bytes.Buffer{})
	assert.Error(t, err)
}
