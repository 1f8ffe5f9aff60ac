package combat

import (
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// AttackAdvantage derives the advantage mode for an attack from positions and
// conditions. Advantage and disadvantage sources are collected independently
// and combined, so simultaneous sources cancel to a normal roll.
//
// Sources of advantage:
//   - target is prone and the attacker is adjacent
//   - target is restrained or blinded
//   - an ally in allyIDs is adjacent to the target (flanking)
//
// Sources of disadvantage:
//   - attacker is prone or blinded
//   - target is prone and the attacker is not adjacent
//   - target is behind cover or dodging
//
// Precondition: board must be non-nil.
func AttackAdvantage(board *Board, attackerID, targetID string, allyIDs []string) dice.AdvantageMode {
	var adv, dis bool

	attackerPos, attackerKnown := board.PositionOf(attackerID)
	targetPos, targetKnown := board.PositionOf(targetID)
	adjacent := attackerKnown && targetKnown && grid.Adjacent(attackerPos, targetPos)

	if board.HasCondition(targetID, ConditionProne) {
		if adjacent {
			adv = true
		} else {
			dis = true
		}
	}
	if board.HasCondition(targetID, ConditionRestrained) || board.HasCondition(targetID, ConditionBlinded) {
		adv = true
	}
	if targetKnown {
		for _, allyID := range allyIDs {
			if allyID == attackerID {
				continue
			}
			if allyPos, ok := board.PositionOf(allyID); ok && grid.Adjacent(allyPos, targetPos) {
				adv = true
				break
			}
		}
	}

	if board.HasCondition(attackerID, ConditionProne) || board.HasCondition(attackerID, ConditionBlinded) {
		dis = true
	}
	if board.HasCondition(targetID, ConditionCover) || board.HasCondition(targetID, ConditionDodging) {
		dis = true
	}

	return dice.Combine(adv, dis)
}
