// Package content loads ability definitions from YAML content files and
// serves them through a read-only registry.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// AbilityRegistry indexes ability definitions by id. Built once at startup
// and read-only afterward.
type AbilityRegistry struct {
	byID map[string]*combat.Ability
}

// NewAbilityRegistry indexes abilities, rejecting duplicate ids.
func NewAbilityRegistry(abilities []*combat.Ability) (*AbilityRegistry, error) {
	byID := make(map[string]*combat.Ability, len(abilities))
	for _, a := range abilities {
		if _, exists := byID[a.ID]; exists {
			return nil, fmt.Errorf("ability registry: duplicate id %q", a.ID)
		}
		byID[a.ID] = a
	}
	return &AbilityRegistry{byID: byID}, nil
}

// Ability returns the ability with the given id.
func (r *AbilityRegistry) Ability(id string) (*combat.Ability, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// IDs returns all ability ids in sorted order.
func (r *AbilityRegistry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadAbilityFromBytes parses and validates a single ability definition.
func LoadAbilityFromBytes(data []byte) (*combat.Ability, error) {
	var a combat.Ability
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing ability YAML: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// LoadAbilities reads all *.yaml files in dir into a fresh registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a registry of validated abilities, or an error on
// the first parse or validate failure.
func LoadAbilities(dir string) (*AbilityRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ability dir %q: %w", dir, err)
	}

	var abilities []*combat.Ability
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		a, err := LoadAbilityFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		abilities = append(abilities, a)
	}
	return NewAbilityRegistry(abilities)
}
