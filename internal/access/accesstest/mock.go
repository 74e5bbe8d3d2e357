// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package accesstest provides test helpers for access control.
package accesstest

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/internal/island"
)

// NobodyPrivileged is a PrivilegeOracle that grants no one.
type NobodyPrivileged struct{}

// IsPrivileged always returns false.
func (NobodyPrivileged) IsPrivileged(context.Context, ulid.ULID) bool { return false }

// Operators is a PrivilegeOracle backed by a set of operator ids.
type Operators struct {
	mu  sync.RWMutex
	ids map[ulid.ULID]bool
}

// NewOperators returns an oracle that treats ids as privileged.
func NewOperators(ids ...ulid.ULID) *Operators {
	o := &Operators{ids: make(map[ulid.ULID]bool, len(ids))}
	for _, id := range ids {
		o.ids[id] = true
	}
	return o
}

// Add marks id as privileged.
func (o *Operators) Add(id ulid.ULID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids[id] = true
}

// IsPrivileged implements access.PrivilegeOracle.
func (o *Operators) IsPrivileged(_ context.Context, id ulid.ULID) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ids[id]
}

// MockResolver is a testify mock of access.IslandResolver.
type MockResolver struct {
	mock.Mock
}

// LookupByLocation implements access.IslandResolver.
func (m *MockResolver) LookupByLocation(ctx context.Context, world string, x, z int) (*island.Island, error) {
	args := m.Called(ctx, world, x, z)
	isl, _ := args.Get(0).(*island.Island)
	return isl, args.Error(1)
}

// Verify interfaces are satisfied.
var (
	_ access.PrivilegeOracle = NobodyPrivileged{}
	_ access.PrivilegeOracle = (*Operators)(nil)
	_ access.IslandResolver  = (*MockResolver)(nil)
)
