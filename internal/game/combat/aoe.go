package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// BuildAOEShape resolves an AOE ability's geometry for the given caster.
// Self-origin abilities anchor on the caster; ranged areas use the chosen
// origin, which must lie within the ability's range of the caster.
//
// Precondition: ability.IsAOE() must be true; board must be non-nil.
func BuildAOEShape(ability *Ability, board *Board, casterID string, origin *grid.Position, dir *grid.Direction) (grid.Shape, error) {
	if !ability.IsAOE() {
		return grid.Shape{}, ImpossibleActionError("ability %q has no area geometry", ability.ID)
	}
	casterPos, ok := board.PositionOf(casterID)
	if !ok {
		return grid.Shape{}, StateError("caster %q has no grid position", casterID)
	}
	if origin != nil && ability.RangeFeet > 0 {
		if grid.DistanceFeet(casterPos, *origin) > ability.RangeFeet {
			return grid.Shape{}, ImpossibleActionError("aoe origin is beyond the %d ft range of %q",
				ability.RangeFeet, ability.ID)
		}
	}
	shape, err := grid.Build(*ability.AOE, casterPos, origin, dir)
	if err != nil {
		return grid.Shape{}, ValidationError("%v", err)
	}
	return shape, nil
}

// TargetsInShape filters candidates to those standing in an affected cell.
//
// Postcondition: Every returned combatant's position satisfies shape.Contains.
func TargetsInShape(shape grid.Shape, board *Board, candidates []*Combatant) []*Combatant {
	var hit []*Combatant
	for _, c := range candidates {
		pos, ok := board.PositionOf(c.ID)
		if !ok {
			continue
		}
		if shape.Contains(pos) {
			hit = append(hit, c)
		}
	}
	return hit
}

// ResolveAOE resolves an area ability: the damage dice are rolled exactly
// once and shared, then each target independently saves against the actor's
// DC. A successful save halves the shared damage (floored); a failure takes
// it in full. Non-damaging effects still report per-target saved status.
//
// Precondition: ability.IsAOE() must be true; targets must all be alive.
// Postcondition: Returns a populated AOEResult; no combatant state is mutated.
func (r *Resolver) ResolveAOE(actor *Player, ability *Ability, targets []*Combatant, cells []grid.Position) (AOEResult, error) {
	if !ability.IsAOE() {
		return AOEResult{}, ImpossibleActionError("ability %q is not area-of-effect", ability.ID)
	}

	dc := r.saveDC(actor, ability)

	result := AOEResult{
		ActorID:     actor.ID,
		AbilityID:   ability.ID,
		AbilityName: ability.Name,
		SaveDC:      dc,
		DamageType:  ability.DamageType,
		Cells:       cells,
	}

	// One shared roll for every target.
	if ability.DamageDice != "" {
		expr, err := dice.Parse(ability.DamageDice)
		if err != nil {
			return AOEResult{}, ImpossibleActionError("ability %q has unrollable damage %q: %v", ability.ID, ability.DamageDice, err)
		}
		shared := r.roller.Roll(expr)
		result.DamageRolls = shared.Dice
		result.DamageTotal = shared.Total()
	}

	for _, target := range targets {
		saveRoll := dice.RollD20(r.roller.Source())
		saveTotal := saveRoll + target.SaveBonus
		saved := saveTotal >= dc
		switch saveRoll {
		case 1:
			saved = false
		case 20:
			saved = true
		}

		outcome := AOETargetOutcome{
			TargetID: target.ID,
			SaveRoll: saveTotal,
			Saved:    saved,
		}
		if result.DamageTotal > 0 {
			if saved {
				outcome.Damage = result.DamageTotal / 2
			} else {
				outcome.Damage = result.DamageTotal
			}
		}
		result.Targets = append(result.Targets, outcome)
	}

	r.logger.Debug("aoe resolved",
		zap.String("actor", actor.ID),
		zap.String("ability", ability.ID),
		zap.Int("dc", dc),
		zap.Int("shared_damage", result.DamageTotal),
		zap.Int("targets", len(result.Targets)),
		zap.Int("cells", len(cells)),
	)
	return result, nil
}
