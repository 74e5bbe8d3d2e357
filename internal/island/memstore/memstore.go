// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memstore provides an in-memory island.Store for tests and
// single-process deployments.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/island"
)

// Store keeps islands in a map guarded by a mutex. InsertIfAbsent is atomic.
type Store struct {
	mu      sync.Mutex
	islands map[island.CellKey]*island.Island
}

// New returns an empty store.
func New() *Store {
	return &Store{islands: make(map[island.CellKey]*island.Island)}
}

// Get implements island.Store.
func (s *Store) Get(_ context.Context, world string, cellID int) (*island.Island, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isl, ok := s.islands[island.CellKey{World: world, CellID: cellID}]
	if !ok {
		return nil, oops.Code(island.CodeNotFound).
			With("world", world).
			With("cell_id", cellID).
			Wrap(island.ErrNotFound)
	}
	return isl.Clone(), nil
}

// ListByOwner implements island.Store.
func (s *Store) ListByOwner(_ context.Context, owner ulid.ULID) ([]*island.Island, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*island.Island, 0)
	for _, isl := range s.islands {
		if isl.IsOwnedBy(owner) {
			out = append(out, isl.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *island.Island) int { return a.Sequence - b.Sequence })
	return out, nil
}

// InsertIfAbsent implements island.Store.
// A second island for the same owner and sequence is reported as
// island.ErrSequenceTaken.
func (s *Store) InsertIfAbsent(_ context.Context, isl *island.Island) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.islands[isl.Key()]; taken {
		return false, nil
	}
	if owner, ok := isl.Ownership.Owner(); ok {
		for _, other := range s.islands {
			if other.IsOwnedBy(owner) && other.Sequence == isl.Sequence {
				return false, oops.Code(island.CodeSequenceTaken).
					With("owner", owner.String()).
					With("sequence", isl.Sequence).
					Wrap(island.ErrSequenceTaken)
			}
		}
	}
	s.islands[isl.Key()] = isl.Clone()
	return true, nil
}

// Save implements island.Store.
func (s *Store) Save(_ context.Context, isl *island.Island) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.islands[isl.Key()]
	if !ok {
		return false, nil
	}
	rec := isl.Clone()
	rec.CreatedAt = prev.CreatedAt
	s.islands[isl.Key()] = rec
	return true, nil
}

// Delete implements island.Store.
func (s *Store) Delete(_ context.Context, world string, cellID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := island.CellKey{World: world, CellID: cellID}
	if _, ok := s.islands[key]; !ok {
		return oops.Code(island.CodeNotFound).
			With("world", world).
			With("cell_id", cellID).
			Wrap(island.ErrNotFound)
	}
	delete(s.islands, key)
	return nil
}

// Len returns the number of stored islands.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.islands)
}

// Compile-time interface check.
var _ island.Store = (*Store)(nil)
