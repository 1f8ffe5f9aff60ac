// Package npc provides monster template definitions loaded from YAML and
// spawning of live combatants from them.
package npc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Template defines a reusable monster archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MaxHP       int    `yaml:"max_hp"`
	AC          int    `yaml:"ac"`
	// AttackBonus is the flat bonus on this monster's basic attack roll.
	AttackBonus int `yaml:"attack_bonus"`
	// DamageDice is the basic attack's damage expression, e.g. "1d6+2".
	DamageDice string `yaml:"damage_dice"`
	DamageType string `yaml:"damage_type"`
	// SaveBonus is added to this monster's saving throws.
	SaveBonus int `yaml:"save_bonus"`
	// Disposition defaults to hostile when empty.
	Disposition combat.Disposition `yaml:"disposition"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP >= 1,
// AC >= 10, DamageDice parses, and Disposition is recognized; returns an
// error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("npc template %q: max_hp must be >= 1", t.ID)
	}
	if t.AC < 10 {
		return fmt.Errorf("npc template %q: ac must be >= 10", t.ID)
	}
	if t.DamageDice != "" {
		if _, err := dice.Parse(t.DamageDice); err != nil {
			return fmt.Errorf("npc template %q: damage_dice %q: %w", t.ID, t.DamageDice, err)
		}
	}
	switch t.Disposition {
	case "", combat.DispositionHostile, combat.DispositionFriendly, combat.DispositionNeutral:
	default:
		return fmt.Errorf("npc template %q: unknown disposition %q", t.ID, t.Disposition)
	}
	return nil
}

// Spawn creates a live combatant from the template at full hit points.
//
// Precondition: instanceID must be non-empty and unique within the encounter.
// Postcondition: CurrentHP equals MaxHP; Disposition defaults to hostile.
func (t *Template) Spawn(instanceID string) *combat.Combatant {
	disposition := t.Disposition
	if disposition == "" {
		disposition = combat.DispositionHostile
	}
	return &combat.Combatant{
		ID:          instanceID,
		Name:        t.Name,
		CurrentHP:   t.MaxHP,
		MaxHP:       t.MaxHP,
		AC:          t.AC,
		Disposition: disposition,
		AttackBonus: t.AttackBonus,
		DamageDice:  t.DamageDice,
		SaveBonus:   t.SaveBonus,
	}
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
