package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateIdsInMarkdown(t *testing.T) {
	m := Default()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "macro",
			in:   "Roll on {{table:starforged/oracles/factions/name}}.",
			want: "Roll on {{table:oracle_rollable:starforged/faction/name}}.",
		},
		{
			name: "link",
			in:   "See [Legacy](id:starforged/oracles/factions/name/legacy) for ideas.",
			want: "See [Legacy](id:oracle_rollable:starforged/faction/name/legacy) for ideas.",
		},
		{
			name: "several references",
			in:   "[Face Danger](id:starforged/moves/adventure/face_danger) or {{text:starforged/moves/adventure/secure_an_advantage}}",
			want: "[Face Danger](id:move:starforged/adventure/face_danger) or {{text:move:starforged/adventure/secure_an_advantage}}",
		},
		{
			name: "unmigratable reference kept",
			in:   "See [Nothing](id:starforged/nothing/here).",
			want: "See [Nothing](id:starforged/nothing/here).",
		},
		{
			name: "plain links untouched",
			in:   "See [the site](https://example.com/a/b).",
			want: "See [the site](https://example.com/a/b).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.UpdateIdsInMarkdown(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, m.UpdateIdsInMarkdown(got), "rewriting must be idempotent")
		})
	}
}

func TestMarkdownReferences(t *testing.T) {
	refs := MarkdownReferences("{{text:classic/moves/fate/pay_the_price}} and [x](id:classic/assets/path/archer)")
	assert.ElementsMatch(t, []string{"classic/moves/fate/pay_the_price", "classic/assets/path/archer"}, refs)
	assert.Empty(t, MarkdownReferences("[x](id:move:classic/fate/pay_the_price)"))
}
