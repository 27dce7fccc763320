package command

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps names and aliases to definitions and keeps them grouped by
// category. It is filled once at startup and read-only afterwards.
type Registry struct {
	byName     map[string]*Definition
	aliases    map[string]string
	categories map[string][]*Definition
}

func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]*Definition),
		aliases:    make(map[string]string),
		categories: make(map[string][]*Definition),
	}
}

// Add registers def under its name and aliases. A name that is already taken
// by a name or alias is rejected with ErrDuplicateName. Aliases that collide
// are dropped and returned so the caller can report them.
func (r *Registry) Add(def *Definition) (dropped []string, err error) {
	key := def.Key()
	if existing, ok := r.byName[key]; ok {
		return nil, fmt.Errorf("%w: %q already defined in %s", ErrDuplicateName, def.Name, existing.Source)
	}
	if owner, ok := r.aliases[key]; ok {
		return nil, fmt.Errorf("%w: %q is already an alias of %q", ErrDuplicateName, def.Name, owner)
	}

	r.byName[key] = def
	r.categories[def.Category] = append(r.categories[def.Category], def)

	for _, alias := range def.Aliases {
		a := strings.ToLower(strings.TrimSpace(alias))
		if a == key {
			continue
		}
		_, nameTaken := r.byName[a]
		_, aliasTaken := r.aliases[a]
		if nameTaken || aliasTaken {
			dropped = append(dropped, alias)
			continue
		}
		r.aliases[a] = key
	}
	return dropped, nil
}

// Get looks a definition up by name only.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.byName[strings.ToLower(name)]
	return def, ok
}

// Resolve looks a definition up by name, then by alias. An alias only
// resolves while the definition it points to is registered.
func (r *Registry) Resolve(name string) (*Definition, bool) {
	key := strings.ToLower(name)
	if def, ok := r.byName[key]; ok {
		return def, true
	}
	if target, ok := r.aliases[key]; ok {
		def, ok := r.byName[target]
		return def, ok
	}
	return nil, false
}

// Aliases returns a copy of the alias to name mapping.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for a, n := range r.aliases {
		out[a] = n
	}
	return out
}

// Categories returns the category names in lexical order.
func (r *Registry) Categories() []string {
	names := make([]string, 0, len(r.categories))
	for c := range r.categories {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

// Category returns the definitions of one category in load order.
func (r *Registry) Category(name string) []*Definition {
	return r.categories[name]
}

// All returns every definition sorted by name.
func (r *Registry) All() []*Definition {
	defs := make([]*Definition, 0, len(r.byName))
	for _, d := range r.byName {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key() < defs[j].Key() })
	return defs
}

func (r *Registry) Len() int {
	return len(r.byName)
}
