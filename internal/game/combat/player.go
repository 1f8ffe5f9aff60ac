package combat

// Stat identifies one of the six core ability scores.
type Stat string

const (
	StatStr Stat = "str"
	StatDex Stat = "dex"
	StatCon Stat = "con"
	StatInt Stat = "int"
	StatWis Stat = "wis"
	StatCha Stat = "cha"
)

// Valid reports whether s is a recognized stat.
func (s Stat) Valid() bool {
	switch s {
	case StatStr, StatDex, StatCon, StatInt, StatWis, StatCha:
		return true
	default:
		return false
	}
}

// Player is the player-controlled combatant, carrying the stat, proficiency,
// and feature data the resolvers consult.
type Player struct {
	Combatant
	Level int `json:"level"`
	// Stats maps each ability score name to its raw score (typically 3-20).
	Stats map[Stat]int `json:"stats"`
	// WeaponProficiencies lists ability ids the player adds proficiency to.
	WeaponProficiencies []string `json:"weaponProficiencies"`
	// SpellcastingStat governs spell attack rolls and spell save DCs.
	SpellcastingStat Stat `json:"spellcastingStat"`
	// Features lists class/racial features the player actually possesses;
	// bonus damage riders are only honored when their feature appears here.
	Features []string `json:"features"`
}

// StatMod returns the ability modifier for the named stat, 0 when absent.
func (p *Player) StatMod(s Stat) int {
	score, ok := p.Stats[s]
	if !ok {
		return 0
	}
	return AbilityMod(score)
}

// Proficiency returns the player's level-derived proficiency bonus.
//
// Postcondition: Returns >= 2.
func (p *Player) Proficiency() int {
	level := p.Level
	if level < 1 {
		level = 1
	}
	return ProficiencyBonus(level)
}

// ProficientWith reports whether the player is proficient with the given
// weapon ability id.
func (p *Player) ProficientWith(abilityID string) bool {
	for _, id := range p.WeaponProficiencies {
		if id == abilityID {
			return true
		}
	}
	return false
}

// HasFeature reports whether the player possesses the named feature.
func (p *Player) HasFeature(name string) bool {
	for _, f := range p.Features {
		if f == name {
			return true
		}
	}
	return false
}

// SpellSaveDC returns the player's spell save difficulty class.
func (p *Player) SpellSaveDC() int {
	return SaveDC(p.StatMod(p.SpellcastingStat), p.Proficiency())
}
