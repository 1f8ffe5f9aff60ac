package npc

import (
	"fmt"
	"sort"
)

// Registry indexes monster templates by id. It is built once at startup and
// read-only afterward, so no locking is needed.
type Registry struct {
	byID map[string]*Template
}

// NewRegistry indexes templates, rejecting duplicate ids.
func NewRegistry(templates []*Template) (*Registry, error) {
	byID := make(map[string]*Template, len(templates))
	for _, t := range templates {
		if _, exists := byID[t.ID]; exists {
			return nil, fmt.Errorf("npc registry: duplicate template id %q", t.ID)
		}
		byID[t.ID] = t
	}
	return &Registry{byID: byID}, nil
}

// LoadRegistry loads every template under dir into a fresh registry.
func LoadRegistry(dir string) (*Registry, error) {
	templates, err := LoadTemplates(dir)
	if err != nil {
		return nil, err
	}
	return NewRegistry(templates)
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// IDs returns all template ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered templates.
func (r *Registry) Len() int { return len(r.byID) }
