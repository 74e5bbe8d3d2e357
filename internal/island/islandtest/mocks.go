// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package islandtest provides test doubles for the island package.
package islandtest

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/skyblock/internal/island"
)

// MockStore is a testify mock of island.Store.
type MockStore struct {
	mock.Mock
}

// Get implements island.Store.
func (m *MockStore) Get(ctx context.Context, world string, cellID int) (*island.Island, error) {
	args := m.Called(ctx, world, cellID)
	isl, _ := args.Get(0).(*island.Island)
	return isl, args.Error(1)
}

// ListByOwner implements island.Store.
func (m *MockStore) ListByOwner(ctx context.Context, owner ulid.ULID) ([]*island.Island, error) {
	args := m.Called(ctx, owner)
	islands, _ := args.Get(0).([]*island.Island)
	return islands, args.Error(1)
}

// InsertIfAbsent implements island.Store.
func (m *MockStore) InsertIfAbsent(ctx context.Context, isl *island.Island) (bool, error) {
	args := m.Called(ctx, isl)
	return args.Bool(0), args.Error(1)
}

// Save implements island.Store.
func (m *MockStore) Save(ctx context.Context, isl *island.Island) (bool, error) {
	args := m.Called(ctx, isl)
	return args.Bool(0), args.Error(1)
}

// Delete implements island.Store.
func (m *MockStore) Delete(ctx context.Context, world string, cellID int) error {
	args := m.Called(ctx, world, cellID)
	return args.Error(0)
}

// Placement is one recorded call to RecordingPlacer.
type Placement struct {
	Template string
	Origin   island.Location
	Actor    ulid.ULID
	Silent   bool
}

// RecordingPlacer records placements and optionally fails them.
type RecordingPlacer struct {
	Err error

	mu    sync.Mutex
	calls []Placement
}

// Place implements island.StructurePlacer.
func (p *RecordingPlacer) Place(_ context.Context, template string, origin island.Location, actor ulid.ULID, silent bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Placement{Template: template, Origin: origin, Actor: actor, Silent: silent})
	return p.Err
}

// Calls returns a copy of the recorded placements.
func (p *RecordingPlacer) Calls() []Placement {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Placement, len(p.calls))
	copy(out, p.calls)
	return out
}

// Verify interfaces are satisfied.
var (
	_ island.Store           = (*MockStore)(nil)
	_ island.StructurePlacer = (*RecordingPlacer)(nil)
)
