package narrator

import (
	"context"
	"fmt"
)

// TemplateNarrator renders scenes from fixed templates. It never fails and
// never touches the network, which makes it both the test narrator and the
// fallback when the model-backed narrator is unavailable.
type TemplateNarrator struct{}

// NewTemplateNarrator creates a TemplateNarrator.
func NewTemplateNarrator() *TemplateNarrator {
	return &TemplateNarrator{}
}

// Narrate renders the scene. The error is always nil.
func (n *TemplateNarrator) Narrate(_ context.Context, s Scene) (string, error) {
	switch s.Phase {
	case "round_end":
		return fmt.Sprintf("Round %d ends. Combatants circle each other, looking for an opening.", s.Round), nil
	case "combat_end":
		return fmt.Sprintf("The fight is over. %s stands victorious.", s.ActorName), nil
	case "player_dead":
		return fmt.Sprintf("%s falls, and the battle is lost.", s.ActorName), nil
	}

	if s.TargetsHit > 0 {
		return fmt.Sprintf("%s unleashes %s, engulfing %d foes.", s.ActorName, s.AbilityName, s.TargetsHit), nil
	}
	if s.SaveBased {
		if s.Saved {
			return fmt.Sprintf("%s shrugs off the worst of %s's %s.", s.TargetName, s.ActorName, s.AbilityName), nil
		}
		return fmt.Sprintf("%s is caught full-on by %s's %s for %d damage.", s.TargetName, s.ActorName, s.AbilityName, s.Damage), nil
	}
	if !s.Hit {
		return fmt.Sprintf("%s's %s goes wide of %s.", s.ActorName, s.AbilityName, s.TargetName), nil
	}
	if s.TargetDown {
		return fmt.Sprintf("%s's %s strikes true, and %s drops.", s.ActorName, s.AbilityName, s.TargetName), nil
	}
	if s.Crit {
		return fmt.Sprintf("A devastating blow! %s's %s tears into %s for %d damage.", s.ActorName, s.AbilityName, s.TargetName, s.Damage), nil
	}
	return fmt.Sprintf("%s hits %s with %s for %d damage.", s.ActorName, s.TargetName, s.AbilityName, s.Damage), nil
}
