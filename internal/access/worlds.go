// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package access

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// WorldMatcher decides which worlds are governed by islands.
// Patterns are globs matched case-insensitively, e.g. "skyblock*".
//
// Thread-safety: immutable after construction.
type WorldMatcher struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// NewWorldMatcher compiles patterns. An invalid pattern is an error.
func NewWorldMatcher(patterns ...string) (*WorldMatcher, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, oops.In("access").
				Code("INVALID_WORLD_PATTERN").
				With("pattern", p).
				Wrap(err)
		}
		compiled = append(compiled, compiledPattern{pattern: p, glob: g})
	}
	return &WorldMatcher{patterns: compiled}, nil
}

// MustWorldMatcher is NewWorldMatcher for hardcoded patterns. It panics on error.
func MustWorldMatcher(patterns ...string) *WorldMatcher {
	m, err := NewWorldMatcher(patterns...)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether world is managed.
func (m *WorldMatcher) Match(world string) bool {
	if m == nil || world == "" {
		return false
	}
	w := strings.ToLower(world)
	for _, p := range m.patterns {
		if p.glob.Match(w) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (m *WorldMatcher) Patterns() []string {
	out := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.pattern
	}
	return out
}
