// Package registry implements the process-wide store of named, categorized
// targets behind cmdhub. Entries are keyed by (name, dimension), may carry
// aliases and open metadata, and are listed in registration order. The store
// is safe for concurrent use: mutations run under one exclusive critical
// section, and readers never observe a partially-constructed entry.
package registry

import (
	"sort"
	"sync"

	"github.com/conneroisu/cmdhub/internal/errors"
)

// Registry manages all registered entries across dimensions.
type Registry struct {
	mu      sync.RWMutex
	entries map[Dimension]map[string]*Entry
	aliases map[Dimension]map[string]string // alias -> canonical name
	seq     uint64
}

// New creates an empty registry. One registry per test or isolated context
// is cheap; production entry points share the hub's default instance.
func New() *Registry {
	return &Registry{
		entries: make(map[Dimension]map[string]*Entry),
		aliases: make(map[Dimension]map[string]string),
	}
}

// Register stores target under name in the given dimension. An empty
// dimension means DefaultDimension. Registration fails with a duplicate-entry
// error if the name or any requested alias collides with an existing
// canonical name or alias in the dimension, unless opts.Replace is set, in
// which case the prior entry with the same canonical name is swapped out
// atomically (its aliases are dropped). A failed registration leaves the
// registry unchanged.
func (r *Registry) Register(name string, target Target, dimension Dimension, opts RegisterOptions) (*Entry, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	for _, alias := range opts.Aliases {
		if err := ValidateName(alias); err != nil {
			return nil, err
		}
	}

	if dimension == "" {
		dimension = DefaultDimension
	}
	if !dimension.Known() {
		return nil, errors.NewInvalidNameError(string(dimension), "unknown dimension")
	}
	if target.Kind() == 0 {
		return nil, errors.NewInvalidTargetError(name, string(dimension), "target is unset")
	}
	if !dimension.accepts(target.Kind()) {
		return nil, errors.NewInvalidTargetError(name, string(dimension),
			"dimension does not accept "+target.Kind().String()+" targets")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names := r.entries[dimension]
	aliases := r.aliases[dimension]

	// Validate every collision before mutating anything, so a failure is
	// side-effect free.
	if opts.Replace {
		// Replace swaps out the entry with the same canonical name. A name
		// that exists only as another entry's alias has no such entry, so
		// it is still a collision.
		if _, ok := aliases[name]; ok {
			return nil, errors.NewDuplicateEntryError(name, string(dimension))
		}
	} else if r.taken(names, aliases, name) {
		return nil, errors.NewDuplicateEntryError(name, string(dimension))
	}
	seen := map[string]bool{name: true}
	for _, alias := range opts.Aliases {
		if seen[alias] {
			return nil, errors.NewDuplicateEntryError(alias, string(dimension))
		}
		seen[alias] = true
		if r.aliasTaken(names, aliases, alias, name, opts.Replace) {
			return nil, errors.NewDuplicateEntryError(alias, string(dimension))
		}
	}

	if names == nil {
		names = make(map[string]*Entry)
		r.entries[dimension] = names
	}
	if aliases == nil {
		aliases = make(map[string]string)
		r.aliases[dimension] = aliases
	}

	if opts.Replace {
		r.removeLocked(dimension, name)
	}

	r.seq++
	entry := &Entry{
		Name:      name,
		Dimension: dimension,
		Target:    target,
		Aliases:   copyStrings(opts.Aliases),
		Metadata:  copyMetadata(opts.Metadata),
		Seq:       r.seq,
	}

	names[name] = entry
	for _, alias := range entry.Aliases {
		aliases[alias] = name
	}

	return entry, nil
}

// Resolve looks up an entry by canonical name first, then by alias. An empty
// dimension means DefaultDimension.
func (r *Registry) Resolve(name string, dimension Dimension) (*Entry, error) {
	if dimension == "" {
		dimension = DefaultDimension
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.entries[dimension][name]; ok {
		return entry, nil
	}
	if canonical, ok := r.aliases[dimension][name]; ok {
		return r.entries[dimension][canonical], nil
	}

	return nil, errors.NewNotFoundError(name, string(dimension))
}

// List returns the dimension's entries ordered by registration sequence,
// ascending. The slice is freshly allocated and safe to retain.
func (r *Registry) List(dimension Dimension) []*Entry {
	if dimension == "" {
		dimension = DefaultDimension
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.entries[dimension]))
	for _, entry := range r.entries[dimension] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })

	return entries
}

// Remove deletes the entry with the given canonical name and all its aliases
// atomically. It reports whether anything was removed; removing an absent
// name is not an error.
func (r *Registry) Remove(name string, dimension Dimension) bool {
	if dimension == "" {
		dimension = DefaultDimension
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(dimension, name)
}

// PopulatedDimensions returns the dimensions that currently hold at least
// one entry, sorted for deterministic output.
func (r *Registry) PopulatedDimensions() []Dimension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dims := make([]Dimension, 0, len(r.entries))
	for dim, names := range r.entries {
		if len(names) > 0 {
			dims = append(dims, dim)
		}
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })

	return dims
}

// Count returns the number of entries in a dimension.
func (r *Registry) Count(dimension Dimension) int {
	if dimension == "" {
		dimension = DefaultDimension
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries[dimension])
}

func (r *Registry) removeLocked(dimension Dimension, name string) bool {
	entry, ok := r.entries[dimension][name]
	if !ok {
		return false
	}

	delete(r.entries[dimension], name)
	for _, alias := range entry.Aliases {
		delete(r.aliases[dimension], alias)
	}

	return true
}

// taken reports whether name collides with a canonical name or alias.
func (r *Registry) taken(names map[string]*Entry, aliases map[string]string, name string) bool {
	if _, ok := names[name]; ok {
		return true
	}
	_, ok := aliases[name]
	return ok
}

// aliasTaken reports whether an alias collides, ignoring (under replace) the
// entry being swapped out, whose aliases are about to be dropped.
func (r *Registry) aliasTaken(names map[string]*Entry, aliases map[string]string, alias, replacing string, replace bool) bool {
	if existing, ok := names[alias]; ok {
		return !(replace && existing.Name == replacing)
	}
	if canonical, ok := aliases[alias]; ok {
		return !(replace && canonical == replacing)
	}
	return false
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyMetadata(in map[string]interface{}) map[string]interface{} {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
