// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package island

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/grid"
)

// Registry is the authoritative in-memory index of islands, keyed by cell
// and by owner, in front of a Store.
//
// Every mutation is written to the store before the index changes, so a
// store failure leaves readers with the previous state. Lookups return
// clones; the registry is the only writer of its records.
//
// Thread-safety: all fields below mu are protected by it. No lock is held
// while the store is called. gen is bumped on every mutation so that a
// lookup which raced a mutation does not install stale data in the cache.
type Registry struct {
	store    Store
	cellSize int
	now      func() time.Time

	mu     sync.RWMutex
	cells  map[CellKey]*Island
	owners map[ulid.ULID][]CellKey // present only when the full list is loaded
	gen    uint64
}

// NewRegistry creates a registry over store for islands of the given cell size.
func NewRegistry(store Store, cellSize int) *Registry {
	if cellSize <= 0 {
		panic("island: registry cell size must be positive")
	}
	return &Registry{
		store:    store,
		cellSize: cellSize,
		now:      time.Now,
		cells:    make(map[CellKey]*Island),
		owners:   make(map[ulid.ULID][]CellKey),
	}
}

// CellSize returns the edge length of the cells this registry indexes.
func (r *Registry) CellSize() int {
	return r.cellSize
}

// LookupByCell returns the island occupying (world, cellID).
// Returns an error matching ErrNotFound if the cell is free.
func (r *Registry) LookupByCell(ctx context.Context, world string, cellID int) (*Island, error) {
	key := CellKey{World: world, CellID: cellID}

	r.mu.RLock()
	cached, ok := r.cells[key]
	gen := r.gen
	r.mu.RUnlock()
	if ok {
		recordLookup(lookupSourceCache, true)
		return cached.Clone(), nil
	}

	isl, err := r.store.Get(ctx, world, cellID)
	if errors.Is(err, ErrNotFound) || (err == nil && isl == nil) {
		recordLookup(lookupSourceStore, false)
		return nil, oops.Code(CodeNotFound).
			With("world", world).
			With("cell_id", cellID).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, persistenceError("get island", err)
	}
	recordLookup(lookupSourceStore, true)

	r.mu.Lock()
	if r.gen == gen {
		if _, exists := r.cells[key]; !exists {
			r.cells[key] = isl.Clone()
			updateCachedGauge(len(r.cells))
		}
	}
	r.mu.Unlock()

	return isl, nil
}

// LookupByLocation resolves the island whose cell contains (x, z).
func (r *Registry) LookupByLocation(ctx context.Context, world string, x, z int) (*Island, error) {
	return r.LookupByCell(ctx, world, grid.CellID(x, z, r.cellSize))
}

// LookupByOwner returns every island owned by owner in creation order.
// An owner with no islands yields an empty slice, not an error.
func (r *Registry) LookupByOwner(ctx context.Context, owner ulid.ULID) ([]*Island, error) {
	r.mu.RLock()
	keys, loaded := r.owners[owner]
	var out []*Island
	if loaded {
		out = make([]*Island, 0, len(keys))
		for _, k := range keys {
			if isl, ok := r.cells[k]; ok {
				out = append(out, isl.Clone())
			} else {
				loaded = false
				break
			}
		}
	}
	gen := r.gen
	r.mu.RUnlock()
	if loaded {
		recordLookup(lookupSourceCache, len(out) > 0)
		return out, nil
	}

	islands, err := r.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, persistenceError("list islands by owner", err)
	}
	sortBySequence(islands)
	recordLookup(lookupSourceStore, len(islands) > 0)

	r.mu.Lock()
	if r.gen == gen {
		keys := make([]CellKey, 0, len(islands))
		for _, isl := range islands {
			r.cells[isl.Key()] = isl.Clone()
			keys = append(keys, isl.Key())
		}
		r.owners[owner] = keys
		updateCachedGauge(len(r.cells))
	}
	r.mu.Unlock()

	return islands, nil
}

// NextSequence returns the lowest island number owner does not use yet.
func (r *Registry) NextSequence(ctx context.Context, owner ulid.ULID) (int, error) {
	islands, err := r.LookupByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	return FirstFreeSequence(islands), nil
}

// FirstFreeSequence returns the lowest number from 1 up that no island in
// islands carries.
func FirstFreeSequence(islands []*Island) int {
	used := make(map[int]bool, len(islands))
	for _, isl := range islands {
		used[isl.Sequence] = true
	}
	seq := 1
	for used[seq] {
		seq++
	}
	return seq
}

// CountByOwner returns how many islands owner has.
func (r *Registry) CountByOwner(ctx context.Context, owner ulid.ULID) (int, error) {
	islands, err := r.LookupByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	return len(islands), nil
}

// Insert persists a new island and indexes it.
// Returns an error matching ErrConflict if the cell is already occupied and
// ErrSequenceTaken if the owner already has an island with that number. The
// latter also drops the owner's cached islands, since the cache missed one.
func (r *Registry) Insert(ctx context.Context, isl *Island) error {
	if err := r.validate(isl); err != nil {
		return err
	}
	key := isl.Key()

	r.mu.RLock()
	_, occupied := r.cells[key]
	r.mu.RUnlock()
	if occupied {
		return conflictError(key)
	}

	rec := isl.Clone()
	now := r.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	inserted, err := r.store.InsertIfAbsent(ctx, rec)
	if errors.Is(err, ErrSequenceTaken) {
		if owner, ok := rec.Ownership.Owner(); ok {
			r.EvictOwner(owner)
		}
		return sequenceTakenError(rec)
	}
	if errors.Is(err, ErrConflict) {
		return conflictError(key)
	}
	if err != nil {
		return persistenceError("insert island", err)
	}
	if !inserted {
		return conflictError(key)
	}

	r.mu.Lock()
	r.gen++
	r.cells[key] = rec
	if owner, ok := rec.Ownership.Owner(); ok {
		if keys, loaded := r.owners[owner]; loaded && !slices.Contains(keys, key) {
			r.owners[owner] = append(keys, key)
			r.sortOwnerKeysLocked(owner)
		}
	}
	updateCachedGauge(len(r.cells))
	r.mu.Unlock()

	isl.CreatedAt, isl.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
	slog.Debug("island indexed",
		"world", key.World,
		"cell_id", key.CellID,
		"owner", rec.Ownership.String(),
		"sequence", rec.Sequence)
	return nil
}

// Update replaces an existing island record.
// Returns an error matching ErrNotFound if the record no longer exists.
func (r *Registry) Update(ctx context.Context, isl *Island) error {
	if err := r.validate(isl); err != nil {
		return err
	}
	key := isl.Key()

	rec := isl.Clone()
	rec.UpdatedAt = r.now().UTC()

	saved, err := r.store.Save(ctx, rec)
	if errors.Is(err, ErrSequenceTaken) {
		return sequenceTakenError(rec)
	}
	if err != nil {
		return persistenceError("save island", err)
	}
	if !saved {
		return oops.Code(CodeNotFound).
			With("world", key.World).
			With("cell_id", key.CellID).
			Wrap(ErrNotFound)
	}

	r.mu.Lock()
	r.gen++
	prev, known := r.cells[key]
	r.cells[key] = rec
	newOwner, newClaimed := rec.Ownership.Owner()
	if known {
		if prevOwner, ok := prev.Ownership.Owner(); ok && (prevOwner != newOwner || !newClaimed) {
			delete(r.owners, prevOwner)
		}
	}
	if newClaimed && (!known || !prev.IsOwnedBy(newOwner)) {
		delete(r.owners, newOwner)
	}
	if newClaimed {
		r.sortOwnerKeysLocked(newOwner)
	}
	r.mu.Unlock()

	isl.UpdatedAt = rec.UpdatedAt
	return nil
}

// Delete removes the island at (world, cellID) from the store and the index.
func (r *Registry) Delete(ctx context.Context, world string, cellID int) error {
	key := CellKey{World: world, CellID: cellID}
	err := r.store.Delete(ctx, world, cellID)
	if errors.Is(err, ErrNotFound) {
		return oops.Code(CodeNotFound).
			With("world", world).
			With("cell_id", cellID).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return persistenceError("delete island", err)
	}

	r.mu.Lock()
	r.gen++
	r.dropCellLocked(key)
	updateCachedGauge(len(r.cells))
	r.mu.Unlock()
	return nil
}

// EvictOwner drops the owner's islands from memory. Persisted data is untouched.
func (r *Registry) EvictOwner(owner ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	for _, k := range r.owners[owner] {
		delete(r.cells, k)
	}
	delete(r.owners, owner)
	for k, isl := range r.cells {
		if isl.IsOwnedBy(owner) {
			delete(r.cells, k)
		}
	}
	updateCachedGauge(len(r.cells))
}

// EvictCell drops one cell from memory. Persisted data is untouched.
func (r *Registry) EvictCell(world string, cellID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	r.dropCellLocked(CellKey{World: world, CellID: cellID})
	updateCachedGauge(len(r.cells))
}

// Cached returns the number of islands currently held in memory.
func (r *Registry) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cells)
}

// dropCellLocked removes key from the cell index and invalidates any owner
// list that referenced it. Caller must hold mu.
func (r *Registry) dropCellLocked(key CellKey) {
	if isl, ok := r.cells[key]; ok {
		if owner, claimed := isl.Ownership.Owner(); claimed {
			r.owners[owner] = slices.DeleteFunc(r.owners[owner], func(k CellKey) bool { return k == key })
			if len(r.owners[owner]) == 0 {
				delete(r.owners, owner)
			}
		}
		delete(r.cells, key)
		return
	}
	for owner, keys := range r.owners {
		if slices.Contains(keys, key) {
			delete(r.owners, owner)
		}
	}
}

// sortOwnerKeysLocked keeps an owner's key list in sequence order.
// Caller must hold mu.
func (r *Registry) sortOwnerKeysLocked(owner ulid.ULID) {
	keys, ok := r.owners[owner]
	if !ok {
		return
	}
	slices.SortStableFunc(keys, func(a, b CellKey) int {
		ia, ib := r.cells[a], r.cells[b]
		if ia == nil || ib == nil {
			return 0
		}
		return compareIslands(ia, ib)
	})
}

func (r *Registry) validate(isl *Island) error {
	if isl == nil {
		return oops.Code(CodeInvalidIsland).Wrap(ErrInvalidIsland)
	}
	if isl.World == "" {
		return oops.Code(CodeInvalidIsland).With("reason", "empty world").Wrap(ErrInvalidIsland)
	}
	if isl.Size != r.cellSize {
		return oops.Code(CodeInvalidIsland).
			With("size", isl.Size).
			With("cell_size", r.cellSize).
			Wrap(ErrInvalidIsland)
	}
	if want := grid.CellID(isl.X, isl.Z, isl.Size); want != isl.CellID {
		return oops.Code(CodeInvalidIsland).
			With("cell_id", isl.CellID).
			With("expected_cell_id", want).
			Wrap(ErrInvalidIsland)
	}
	if isl.Ownership.Claimed() && isl.Sequence < 1 {
		return oops.Code(CodeInvalidIsland).With("sequence", isl.Sequence).Wrap(ErrInvalidIsland)
	}
	return nil
}

func conflictError(key CellKey) error {
	return oops.Code(CodeConflict).
		With("world", key.World).
		With("cell_id", key.CellID).
		Wrap(ErrConflict)
}

func sequenceTakenError(isl *Island) error {
	return oops.Code(CodeSequenceTaken).
		With("owner", isl.Ownership.String()).
		With("sequence", isl.Sequence).
		Wrap(ErrSequenceTaken)
}

func compareIslands(a, b *Island) int {
	if a.Sequence != b.Sequence {
		return a.Sequence - b.Sequence
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func sortBySequence(islands []*Island) {
	slices.SortStableFunc(islands, compareIslands)
}
