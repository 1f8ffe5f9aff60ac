package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Resolver turns one ability use into a MechanicalResult. It is side-effect
// free apart from consuming randomness from its roller: damage application
// and persistence belong to the orchestrator.
type Resolver struct {
	roller *dice.Roller
	logger *zap.Logger
}

// NewResolver creates a Resolver rolling with roller and logging to logger.
//
// Precondition: roller and logger must be non-nil.
func NewResolver(roller *dice.Roller, logger *zap.Logger) *Resolver {
	return &Resolver{roller: roller, logger: logger}
}

// Resolve resolves a single-target or non-targeted ability use by actor.
//
// Non-targeted actions return a no-check result. Targeted abilities without a
// target fail with ErrValidation. Attack-roll abilities (weapon, spell attack)
// roll d20 under positional advantage against the target's AC; save-effect
// abilities roll the target's save against the actor's DC. A natural 1 always
// misses and a natural 20 always hits and doubles the damage dice.
//
// Precondition: actor and ability must be non-nil; board must be non-nil;
// allyIDs lists living allies of actor for flanking.
// Postcondition: Returns a populated MechanicalResult, or an error from the
// taxonomy in errors.go; no combatant state is mutated either way.
func (r *Resolver) Resolve(actor *Player, ability *Ability, target *Combatant, board *Board, allyIDs []string) (MechanicalResult, error) {
	if ability.IsAOE() {
		return MechanicalResult{}, ImpossibleActionError("ability %q is area-of-effect; use ResolveAOE", ability.ID)
	}

	if !ability.RequiresTarget {
		return MechanicalResult{
			Kind:        ResultNone,
			ActorID:     actor.ID,
			AbilityID:   ability.ID,
			AbilityName: ability.Name,
		}, nil
	}

	if target == nil {
		return MechanicalResult{}, ValidationError("ability %q requires a target", ability.ID)
	}
	if err := r.checkRange(actor, ability, target, board); err != nil {
		return MechanicalResult{}, err
	}

	if ability.SaveEffect {
		return r.resolveSaveEffect(actor, ability, target)
	}
	return r.resolveAttackRoll(actor, ability, target, board, allyIDs)
}

// checkRange rejects attacks beyond the ability's reach.
func (r *Resolver) checkRange(actor *Player, ability *Ability, target *Combatant, board *Board) error {
	if ability.RangeFeet <= 0 {
		return nil
	}
	dist := board.DistanceFeet(actor.ID, target.ID)
	if dist < 0 {
		// Unknown positions are treated as in range rather than blocking
		// the action; the grid is advisory for non-AOE abilities.
		return nil
	}
	if dist > ability.RangeFeet {
		return ImpossibleActionError("target %q is %d ft away, beyond the %d ft range of %q",
			target.ID, dist, ability.RangeFeet, ability.ID)
	}
	return nil
}

// attackModifier computes the flat bonus for the attack roll.
// Weapon attacks add the governing stat modifier, proficiency when the actor
// is proficient with the weapon, and any item bonus. Spell attacks add the
// spellcasting modifier plus proficiency with no weapon proficiency check.
func (r *Resolver) attackModifier(actor *Player, ability *Ability) int {
	switch ability.Type {
	case AbilityWeapon:
		mod := actor.StatMod(ability.Stat)
		if actor.ProficientWith(ability.ID) {
			mod += actor.Proficiency()
		}
		return mod + ability.AttackBonus
	default:
		return actor.StatMod(actor.SpellcastingStat) + actor.Proficiency() + ability.AttackBonus
	}
}

func (r *Resolver) resolveAttackRoll(actor *Player, ability *Ability, target *Combatant, board *Board, allyIDs []string) (MechanicalResult, error) {
	mode := AttackAdvantage(board, actor.ID, target.ID, allyIDs)
	roll := r.roller.D20(mode)
	total := roll.Value + r.attackModifier(actor, ability)

	// Natural-roll override: a 1 always misses, a 20 always hits and crits.
	hit := total >= target.AC
	crit := false
	switch {
	case roll.IsNatural1():
		hit = false
	case roll.IsNatural20():
		hit = true
		crit = true
	}

	result := MechanicalResult{
		Kind:        ResultAttack,
		ActorID:     actor.ID,
		AbilityID:   ability.ID,
		AbilityName: ability.Name,
		TargetID:    target.ID,
		Mode:        mode,
		ModeName:    mode.String(),
		AttackRolls: roll.Rolls,
		NaturalRoll: roll.Value,
		AttackTotal: total,
		TargetAC:    target.AC,
		Hit:         hit,
		Crit:        crit,
		DamageType:  ability.DamageType,
	}

	if hit && ability.DamageDice != "" {
		damage, rolls, features, err := r.rollDamage(actor, ability, crit)
		if err != nil {
			return MechanicalResult{}, err
		}
		result.Damage = damage
		result.DamageRolls = rolls
		result.BonusFeatures = features
	}

	r.logger.Debug("attack resolved",
		zap.String("actor", actor.ID),
		zap.String("ability", ability.ID),
		zap.String("target", target.ID),
		zap.String("mode", mode.String()),
		zap.Int("total", total),
		zap.Bool("hit", hit),
		zap.Bool("crit", crit),
		zap.Int("damage", result.Damage),
	)
	return result, nil
}

func (r *Resolver) resolveSaveEffect(actor *Player, ability *Ability, target *Combatant) (MechanicalResult, error) {
	dc := r.saveDC(actor, ability)

	saveRoll := dice.RollD20(r.roller.Source())
	saveTotal := saveRoll + target.SaveBonus
	saved := saveTotal >= dc
	// Natural-roll override applies to saves as well.
	switch saveRoll {
	case 1:
		saved = false
	case 20:
		saved = true
	}

	result := MechanicalResult{
		Kind:           ResultSave,
		ActorID:        actor.ID,
		AbilityID:      ability.ID,
		AbilityName:    ability.Name,
		TargetID:       target.ID,
		SaveDC:         dc,
		TargetSaveRoll: saveTotal,
		TargetSaved:    saved,
		DamageType:     ability.DamageType,
	}

	// The effect lands iff the save fails; damage, if any, is rolled once.
	if !saved && ability.DamageDice != "" {
		damage, rolls, features, err := r.rollDamage(actor, ability, false)
		if err != nil {
			return MechanicalResult{}, err
		}
		result.Damage = damage
		result.DamageRolls = rolls
		result.BonusFeatures = features
	}

	r.logger.Debug("save effect resolved",
		zap.String("actor", actor.ID),
		zap.String("ability", ability.ID),
		zap.String("target", target.ID),
		zap.Int("dc", dc),
		zap.Int("save_total", saveTotal),
		zap.Bool("saved", saved),
		zap.Int("damage", result.Damage),
	)
	return result, nil
}

// saveDC computes the DC for a save effect: 8 + governing modifier +
// proficiency. Racial abilities use their declared stat; spells fall back to
// the actor's spellcasting stat when none is declared.
func (r *Resolver) saveDC(actor *Player, ability *Ability) int {
	stat := ability.Stat
	if stat == "" {
		stat = actor.SpellcastingStat
	}
	return SaveDC(actor.StatMod(stat), actor.Proficiency())
}

// rollDamage rolls the ability's base damage plus any riders the actor
// actually possesses. On a crit the die counts are doubled; flat bonuses
// (the stat modifier and rider flats) are never doubled. Riders whose
// feature the actor lacks are skipped with a warning instead of failing
// the action.
func (r *Resolver) rollDamage(actor *Player, ability *Ability, crit bool) (int, []int, []string, error) {
	expr, err := dice.Parse(ability.DamageDice)
	if err != nil {
		return 0, nil, nil, ImpossibleActionError("ability %q has unrollable damage %q: %v", ability.ID, ability.DamageDice, err)
	}
	if crit {
		expr = dice.DoubleCount(expr)
	}

	base := r.roller.Roll(expr)
	total := base.Total()
	rolls := append([]int(nil), base.Dice...)

	// Weapon and racial damage adds the governing stat modifier as a flat
	// bonus; spell damage is dice-only.
	if ability.Type == AbilityWeapon || ability.Type == AbilityRacial {
		total += actor.StatMod(ability.Stat)
	}

	var applied []string
	for _, rider := range ability.BonusDamage {
		if !actor.HasFeature(rider.Feature) {
			r.logger.Warn("skipping bonus damage for missing feature",
				zap.String("actor", actor.ID),
				zap.String("ability", ability.ID),
				zap.String("feature", rider.Feature),
			)
			continue
		}
		if rider.Dice != "" {
			riderExpr, err := dice.Parse(rider.Dice)
			if err != nil {
				r.logger.Warn("skipping unrollable bonus damage",
					zap.String("feature", rider.Feature),
					zap.String("dice", rider.Dice),
					zap.Error(err),
				)
				continue
			}
			if crit {
				riderExpr = dice.DoubleCount(riderExpr)
			}
			riderRoll := r.roller.Roll(riderExpr)
			total += riderRoll.Total()
			rolls = append(rolls, riderRoll.Dice...)
		}
		total += rider.Flat
		applied = append(applied, rider.Feature)
	}

	if total < 0 {
		total = 0
	}
	return total, rolls, applied, nil
}

// ResolveNPCAttack rolls an NPC's basic attack against the player: d20 +
// the NPC's attack bonus vs the player's AC, with the same natural-roll
// override and crit doubling as player attacks.
//
// Precondition: npc and player must be non-nil and alive; board non-nil.
// Postcondition: Returns a populated MechanicalResult; no state is mutated.
func (r *Resolver) ResolveNPCAttack(npc *Combatant, player *Player, board *Board) (MechanicalResult, error) {
	mode := AttackAdvantage(board, npc.ID, player.ID, nil)
	roll := r.roller.D20(mode)
	total := roll.Value + npc.AttackBonus

	hit := total >= player.AC
	crit := false
	switch {
	case roll.IsNatural1():
		hit = false
	case roll.IsNatural20():
		hit = true
		crit = true
	}

	result := MechanicalResult{
		Kind:        ResultAttack,
		ActorID:     npc.ID,
		AbilityID:   "basic-attack",
		AbilityName: npc.Name + " attack",
		TargetID:    player.ID,
		Mode:        mode,
		ModeName:    mode.String(),
		AttackRolls: roll.Rolls,
		NaturalRoll: roll.Value,
		AttackTotal: total,
		TargetAC:    player.AC,
		Hit:         hit,
		Crit:        crit,
	}

	if hit && npc.DamageDice != "" {
		expr, err := dice.Parse(npc.DamageDice)
		if err != nil {
			return MechanicalResult{}, ImpossibleActionError("npc %q has unrollable damage %q: %v", npc.ID, npc.DamageDice, err)
		}
		if crit {
			expr = dice.DoubleCount(expr)
		}
		dmg := r.roller.Roll(expr)
		result.Damage = dmg.Total()
		result.DamageRolls = dmg.Dice
	}
	return result, nil
}
