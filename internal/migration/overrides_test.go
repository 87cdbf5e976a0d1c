package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

func TestLoadOverrides(t *testing.T) {
	topo := typeid.Default()

	t.Run("renames apply", func(t *testing.T) {
		renames, err := LoadOverrides(strings.NewReader(`
starforged:
  oracle_collection:
    space_sighting: sightings
    faction_name: faction_names
`), topo)
		require.NoError(t, err)
		require.Len(t, renames, 1)
		require.Len(t, renames[0].Types, 1)
		assert.Equal(t, []KeyRename{
			{New: "faction_name", Old: "faction_names"},
			{New: "space_sighting", Old: "sightings"},
		}, renames[0].Types[0].Renames)

		m, err := New(topo, Config{Renames: renames})
		require.NoError(t, err)
		assert.Equal(t, "oracle_collection:starforged/space_sighting",
			m.UpdateID("starforged/collections/oracles/sightings", ""))
		assert.Equal(t, "oracle_rollable:starforged/space_sighting/outlands",
			m.UpdateID("starforged/oracles/sightings/outlands", ""))
	})

	t.Run("empty input", func(t *testing.T) {
		renames, err := LoadOverrides(strings.NewReader(""), topo)
		require.NoError(t, err)
		assert.Nil(t, renames)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := LoadOverrides(strings.NewReader("starforged:\n  bogus:\n    a: b\n"), topo)
		assert.ErrorIs(t, err, types.ErrUnknownType)
	})

	t.Run("type without legacy IDs", func(t *testing.T) {
		_, err := LoadOverrides(strings.NewReader("starforged:\n  row:\n    a: b\n"), topo)
		assert.ErrorContains(t, err, "has no legacy IDs")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadOverrides(strings.NewReader("starforged: [1, 2"), topo)
		assert.Error(t, err)
	})
}

func TestLoadIDMap(t *testing.T) {
	m, err := LoadIDMap(strings.NewReader(`{"a/b/c": "move:a/b/c", "a/b/d": null}`))
	require.NoError(t, err)
	require.Contains(t, m, "a/b/d")
	assert.Nil(t, m["a/b/d"])
	require.NotNil(t, m["a/b/c"])
	assert.Equal(t, "move:a/b/c", *m["a/b/c"])

	_, err = LoadIDMap(strings.NewReader(`[1]`))
	assert.Error(t, err)
}
