// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package island_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/skyblock/internal/grid"
	"github.com/holomush/skyblock/internal/island"
	"github.com/holomush/skyblock/internal/island/islandtest"
	"github.com/holomush/skyblock/internal/island/memstore"
	"github.com/holomush/skyblock/pkg/errutil"
)

func plannerConfig() island.PlannerConfig {
	return island.PlannerConfig{World: testWorld, FloorY: 60, Height: 128}
}

func TestPlanner_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("first island lands in ring zero", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		placer := &islandtest.RecordingPlacer{}
		planner := island.NewPlanner(reg, placer, island.NewSequenceOffsets(), plannerConfig())
		actor := ulid.Make()

		isl, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)

		assert.Equal(t, 0, isl.CellID)
		assert.Equal(t, 1, isl.Sequence)
		assert.True(t, isl.IsOwnedBy(actor))
		assert.Equal(t, 50, isl.X)
		assert.Equal(t, 50, isl.Z)
		assert.Equal(t, 60, isl.FloorY)
		assert.Equal(t, "My Island", isl.Name)
		assert.Equal(t, "PLAINS", isl.Biome)

		calls := placer.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "default", calls[0].Template)
		assert.Equal(t, island.Location{World: testWorld, X: 50, Y: 60, Z: 50}, calls[0].Origin)
		assert.Equal(t, actor, calls[0].Actor)
	})

	t.Run("second island skips the occupied ring", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		offsets := island.NewSequenceOffsets([2]int{testSize, 0})
		planner := island.NewPlanner(reg, nil, offsets, plannerConfig())
		actor := ulid.Make()

		first, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)
		second, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)

		assert.Equal(t, 0, first.CellID)
		assert.Equal(t, 1, second.CellID)
		assert.Equal(t, 150, second.X)
		assert.Equal(t, 50, second.Z)
		assert.Equal(t, 2, second.Sequence)

		owned, err := reg.LookupByOwner(ctx, actor)
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, first.CellID, owned[0].CellID)
		assert.Equal(t, second.CellID, owned[1].CellID)
	})

	t.Run("lost insert race retries on next ring", func(t *testing.T) {
		store := &islandtest.MockStore{}
		reg := island.NewRegistry(store, testSize)
		offsets := island.NewSequenceOffsets([2]int{testSize, testSize})
		planner := island.NewPlanner(reg, nil, offsets, plannerConfig())
		actor := ulid.Make()
		ringOne := grid.CellID(150, 150, testSize)

		store.On("Get", mock.Anything, testWorld, 0).Return(nil, island.ErrNotFound).Once()
		store.On("Get", mock.Anything, testWorld, ringOne).Return(nil, island.ErrNotFound).Once()
		store.On("ListByOwner", mock.Anything, actor).Return([]*island.Island{}, nil).Once()
		store.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(i *island.Island) bool {
			return i.CellID == 0
		})).Return(false, nil).Once()
		store.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(i *island.Island) bool {
			return i.CellID == ringOne
		})).Return(true, nil).Once()

		isl, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)
		assert.Equal(t, ringOne, isl.CellID)
		assert.Equal(t, 1, isl.Sequence)
		store.AssertExpectations(t)
	})

	t.Run("store failure aborts without claiming", func(t *testing.T) {
		store := &islandtest.MockStore{}
		reg := island.NewRegistry(store, testSize)
		planner := island.NewPlanner(reg, nil, nil, plannerConfig())

		store.On("Get", mock.Anything, testWorld, 0).Return(nil, errors.New("pool closed"))

		_, err := planner.Allocate(ctx, island.AllocationRequest{Actor: ulid.Make()})
		require.Error(t, err)
		assert.Equal(t, island.KindPersistence, island.KindOf(err))
		store.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
		assert.Equal(t, 0, reg.Cached())
	})

	t.Run("insert failure leaves registry unchanged", func(t *testing.T) {
		store := &islandtest.MockStore{}
		reg := island.NewRegistry(store, testSize)
		placer := &islandtest.RecordingPlacer{}
		planner := island.NewPlanner(reg, placer, nil, plannerConfig())
		actor := ulid.Make()

		store.On("Get", mock.Anything, testWorld, 0).Return(nil, island.ErrNotFound)
		store.On("ListByOwner", mock.Anything, actor).Return([]*island.Island{}, nil)
		store.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(false, errors.New("disk full"))

		_, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.Error(t, err)
		assert.ErrorIs(t, err, island.ErrPersistence)
		assert.Empty(t, placer.Calls())

		n, err := reg.CountByOwner(ctx, actor)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("exhausted search reports allocation exhausted", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		cfg := plannerConfig()
		cfg.MaxAttempts = 3
		// every ring probes cell 0, which is taken
		stuck := island.OffsetFunc(func(int, int) (int, int) { return 0, 0 })
		planner := island.NewPlanner(reg, nil, stuck, cfg)

		_, err := planner.Allocate(ctx, island.AllocationRequest{Actor: ulid.Make()})
		require.NoError(t, err)

		_, err = planner.Allocate(ctx, island.AllocationRequest{Actor: ulid.Make()})
		require.Error(t, err)
		assert.ErrorIs(t, err, island.ErrAllocationExhausted)
		errutil.AssertErrorCode(t, err, island.CodeAllocationExhausted)
		errutil.AssertErrorContext(t, err, "attempts", 3)
	})

	t.Run("placement failure keeps the claim", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		placer := &islandtest.RecordingPlacer{Err: errors.New("schematic missing")}
		planner := island.NewPlanner(reg, placer, nil, plannerConfig())
		actor := ulid.Make()

		isl, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor, Template: "desert", Silent: true})
		require.NoError(t, err)

		calls := placer.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "desert", calls[0].Template)
		assert.True(t, calls[0].Silent)

		got, err := reg.LookupByCell(ctx, testWorld, isl.CellID)
		require.NoError(t, err)
		assert.True(t, got.IsOwnedBy(actor))
	})

	t.Run("explicit sequence is preserved", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		planner := island.NewPlanner(reg, nil, nil, plannerConfig())

		isl, err := planner.Allocate(ctx, island.AllocationRequest{Actor: ulid.Make(), Sequence: 4})
		require.NoError(t, err)
		assert.Equal(t, 4, isl.Sequence)
	})

	t.Run("numbering gap takes the lowest free number", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		cfg := plannerConfig()
		cfg.MaxAttempts = 500
		planner := island.NewPlanner(reg, nil, island.NewRandomOffsets(5), cfg)
		actor := ulid.Make()

		first, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)
		_, err = planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)
		require.NoError(t, reg.Delete(ctx, first.World, first.CellID))

		refill, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)
		assert.Equal(t, 1, refill.Sequence)

		next, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)
		assert.Equal(t, 3, next.Sequence)
	})

	t.Run("stale owner cache re-reads and retries the same cell", func(t *testing.T) {
		store := &islandtest.MockStore{}
		reg := island.NewRegistry(store, testSize)
		planner := island.NewPlanner(reg, nil, island.NewSequenceOffsets(), plannerConfig())
		actor := ulid.Make()
		elsewhere := &island.Island{
			CellID: 7, World: testWorld, X: 750, FloorY: 60, Z: 50, Size: testSize, Height: 128,
			Ownership: island.OwnedBy(actor), Sequence: 1,
		}

		store.On("Get", mock.Anything, testWorld, 0).Return(nil, island.ErrNotFound).Twice()
		store.On("ListByOwner", mock.Anything, actor).Return([]*island.Island{}, nil).Once()
		store.On("ListByOwner", mock.Anything, actor).Return([]*island.Island{elsewhere}, nil).Once()
		store.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(i *island.Island) bool {
			return i.Sequence == 1
		})).Return(false, island.ErrSequenceTaken).Once()
		store.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(i *island.Island) bool {
			return i.Sequence == 2
		})).Return(true, nil).Once()

		isl, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)
		assert.Equal(t, 0, isl.CellID)
		assert.Equal(t, 2, isl.Sequence)
		store.AssertExpectations(t)
	})

	t.Run("explicit sequence already taken fails fast", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		cfg := plannerConfig()
		cfg.MaxAttempts = 500
		planner := island.NewPlanner(reg, nil, island.NewRandomOffsets(5), cfg)
		actor := ulid.Make()

		_, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
		require.NoError(t, err)

		_, err = planner.Allocate(ctx, island.AllocationRequest{Actor: actor, Sequence: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, island.ErrSequenceTaken)
		assert.NotErrorIs(t, err, island.ErrAllocationExhausted)
		assert.Equal(t, island.KindSequenceTaken, island.KindOf(err))
		errutil.AssertErrorCode(t, err, island.CodeSequenceTaken)
	})

	t.Run("canceled context stops the search", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		planner := island.NewPlanner(reg, nil, nil, plannerConfig())
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := planner.Allocate(canceled, island.AllocationRequest{Actor: ulid.Make()})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, reg.Cached())
	})
}

func TestPlanner_ConcurrentAllocationsGetDistinctCells(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	store := memstore.New()
	reg := island.NewRegistry(store, testSize)
	planner := island.NewPlanner(reg, nil, island.NewRandomOffsets(7), plannerConfig())

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	cells := make(map[int]ulid.ULID, n)
	actors := make([]ulid.ULID, n)
	for i := range actors {
		actors[i] = ulid.Make()
	}

	for _, actor := range actors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isl, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			cells[isl.CellID] = actor
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, cells, n, "every allocation must land in its own cell")
	assert.Equal(t, n, store.Len())
	for id, actor := range cells {
		isl, err := reg.LookupByCell(ctx, testWorld, id)
		require.NoError(t, err)
		assert.True(t, isl.IsOwnedBy(actor))
	}
}

func TestPlanner_ConcurrentAllocationsSameActor(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	reg := island.NewRegistry(memstore.New(), testSize)
	planner := island.NewPlanner(reg, nil, island.NewRandomOffsets(11), plannerConfig())
	actor := ulid.Make()

	const n = 8
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := planner.Allocate(ctx, island.AllocationRequest{Actor: actor})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	owned, err := reg.LookupByOwner(ctx, actor)
	require.NoError(t, err)
	require.Len(t, owned, n)
	for i, isl := range owned {
		assert.Equal(t, i+1, isl.Sequence)
	}
}

func TestPlanner_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("claims the cell under the location", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		planner := island.NewPlanner(reg, nil, nil, plannerConfig())
		actor := ulid.Make()

		isl, err := planner.Claim(ctx, actor, island.Location{World: "SkyBlock", X: -120, Y: 70, Z: 330})
		require.NoError(t, err)
		assert.Equal(t, grid.CellID(-120, 330, testSize), isl.CellID)
		assert.Equal(t, 1, isl.Sequence)
		assert.Equal(t, 70, isl.FloorY)
	})

	t.Run("rejects other worlds", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		planner := island.NewPlanner(reg, nil, nil, plannerConfig())

		_, err := planner.Claim(ctx, ulid.Make(), island.Location{World: "world_nether"})
		assert.ErrorIs(t, err, island.ErrNotManagedWorld)
	})

	t.Run("occupied cell conflicts", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		planner := island.NewPlanner(reg, nil, nil, plannerConfig())
		loc := island.Location{World: testWorld, X: 10, Y: 60, Z: 10}

		_, err := planner.Claim(ctx, ulid.Make(), loc)
		require.NoError(t, err)
		_, err = planner.Claim(ctx, ulid.Make(), loc)
		assert.ErrorIs(t, err, island.ErrConflict)
	})

	t.Run("fills a numbering gap", func(t *testing.T) {
		reg := island.NewRegistry(memstore.New(), testSize)
		planner := island.NewPlanner(reg, nil, nil, plannerConfig())
		actor := ulid.Make()

		first, err := planner.Claim(ctx, actor, island.Location{World: testWorld, X: 10, Z: 10})
		require.NoError(t, err)
		_, err = planner.Claim(ctx, actor, island.Location{World: testWorld, X: 110, Z: 10})
		require.NoError(t, err)
		require.NoError(t, reg.Delete(ctx, first.World, first.CellID))

		isl, err := planner.Claim(ctx, actor, island.Location{World: testWorld, X: 210, Z: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, isl.Sequence)
	})
}
