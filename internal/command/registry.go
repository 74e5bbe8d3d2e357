// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/oops"
)

// Registry maps subcommand names and aliases to entries.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	aliases map[string]string // alias -> canonical name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		aliases: make(map[string]string),
	}
}

// Register adds entry. Names and aliases must be valid and unused.
func (r *Registry) Register(entry Entry) error {
	if entry.Handler == nil {
		return oops.Code(CodeInvalidName).With("command", entry.Name).Errorf("command has no handler")
	}
	names := append([]string{entry.Name}, entry.Aliases...)
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if r.taken(name) {
			return oops.Code(CodeDuplicateCommand).
				With("command", entry.Name).
				With("name", name).
				Errorf("command name %q is already registered", name)
		}
	}

	entry.Aliases = slices.Clone(entry.Aliases)
	r.entries[entry.Name] = entry
	for _, alias := range entry.Aliases {
		r.aliases[alias] = entry.Name
	}
	return nil
}

func (r *Registry) taken(name string) bool {
	if _, ok := r.entries[name]; ok {
		return true
	}
	_, ok := r.aliases[name]
	return ok
}

// Get resolves name or one of its aliases, case-insensitively.
func (r *Registry) Get(name string) (Entry, bool) {
	name = strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	entry, ok := r.entries[name]
	return entry, ok
}

// All returns every entry sorted by name.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}
