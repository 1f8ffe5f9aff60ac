package narrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateNarrator_CoversPhases(t *testing.T) {
	n := NewTemplateNarrator()
	ctx := context.Background()

	scenes := []Scene{
		{Phase: "player_turn", ActorName: "Aldric", TargetName: "Goblin", AbilityName: "Longsword", Hit: true, Damage: 7},
		{Phase: "player_turn", ActorName: "Aldric", TargetName: "Goblin", AbilityName: "Longsword", Hit: true, Crit: true, Damage: 14},
		{Phase: "player_turn", ActorName: "Aldric", TargetName: "Goblin", AbilityName: "Longsword"},
		{Phase: "player_turn", ActorName: "Aldric", AbilityName: "Fireball", TargetsHit: 3},
		{Phase: "player_turn", ActorName: "Aldric", TargetName: "Goblin", AbilityName: "Sacred Flame", SaveBased: true, Saved: true},
		{Phase: "npc_turn", ActorName: "Goblin", TargetName: "Aldric", AbilityName: "Scimitar", Hit: true, Damage: 5},
		{Phase: "round_end", Round: 2},
		{Phase: "combat_end", ActorName: "Aldric"},
		{Phase: "player_dead", ActorName: "Aldric"},
	}
	for _, s := range scenes {
		text, err := n.Narrate(ctx, s)
		require.NoError(t, err)
		assert.NotEmpty(t, text, "scene %+v must produce narration", s)
	}
}

func TestTemplateNarrator_KillLine(t *testing.T) {
	n := NewTemplateNarrator()
	text, err := n.Narrate(context.Background(), Scene{
		Phase:       "player_turn",
		ActorName:   "Aldric",
		TargetName:  "Goblin",
		AbilityName: "Longsword",
		Hit:         true,
		Damage:      9,
		TargetDown:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, text, "drops")
}
