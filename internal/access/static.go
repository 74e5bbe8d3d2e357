// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package access

import (
	"context"
	"sync"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Permissions checked by the island commands.
const (
	PermCreate = "island:create"
	PermVisit  = "island:visit"
	PermKick   = "island:kick"
	PermReset  = "island:reset"
	PermInfo   = "island:info"
	// PermBypass exempts an actor from island restrictions.
	PermBypass = "island:admin:bypass"
)

// Role names known to DefaultRoles.
const (
	RolePlayer   = "player"
	RoleOperator = "operator"
)

// DefaultRoles returns the built-in role definitions.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RolePlayer:   {PermCreate, PermVisit, PermKick, PermReset, PermInfo},
		RoleOperator: {"island:**"},
	}
}

// StaticPrivileges assigns roles to actors and grants permissions by role.
// Actors without a role get none.
//
// Thread-safety: roles is immutable after construction; assignments is
// protected by mu.
type StaticPrivileges struct {
	roles       map[string][]glob.Glob
	mu          sync.RWMutex
	assignments map[ulid.ULID]string
}

// NewStaticPrivileges compiles roles. Patterns use ':' as the separator,
// so "island:*" matches "island:kick" but not "island:admin:bypass".
func NewStaticPrivileges(roles map[string][]string) (*StaticPrivileges, error) {
	compiled := make(map[string][]glob.Glob, len(roles))
	for role, perms := range roles {
		for _, p := range perms {
			g, err := glob.Compile(p, ':')
			if err != nil {
				return nil, oops.In("access").
					Code("INVALID_PERMISSION_PATTERN").
					With("role", role).
					With("pattern", p).
					Wrap(err)
			}
			compiled[role] = append(compiled[role], g)
		}
	}
	return &StaticPrivileges{roles: compiled, assignments: make(map[ulid.ULID]string)}, nil
}

// NewDefaultPrivileges returns StaticPrivileges over DefaultRoles.
func NewDefaultPrivileges() *StaticPrivileges {
	p, err := NewStaticPrivileges(DefaultRoles())
	if err != nil {
		panic("invalid permission pattern in DefaultRoles: " + err.Error())
	}
	return p
}

// Assign gives actor a role, replacing any previous one.
func (s *StaticPrivileges) Assign(actor ulid.ULID, role string) error {
	if _, ok := s.roles[role]; !ok {
		return oops.In("access").Code("UNKNOWN_ROLE").With("role", role).Errorf("unknown role %q", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[actor] = role
	return nil
}

// Revoke removes the actor's role.
func (s *StaticPrivileges) Revoke(actor ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, actor)
}

// Role returns the actor's role, or "" when none is assigned.
func (s *StaticPrivileges) Role(actor ulid.ULID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignments[actor]
}

// HasPermission reports whether actor's role grants perm.
func (s *StaticPrivileges) HasPermission(_ context.Context, actor ulid.ULID, perm string) bool {
	role := s.Role(actor)
	if role == "" {
		return false
	}
	for _, g := range s.roles[role] {
		if g.Match(perm) {
			return true
		}
	}
	return false
}

// IsPrivileged implements PrivilegeOracle.
func (s *StaticPrivileges) IsPrivileged(ctx context.Context, actor ulid.ULID) bool {
	return s.HasPermission(ctx, actor, PermBypass)
}

// Compile-time interface check.
var _ PrivilegeOracle = (*StaticPrivileges)(nil)
