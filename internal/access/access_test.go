// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/internal/access/accesstest"
	"github.com/holomush/skyblock/internal/grid"
	"github.com/holomush/skyblock/internal/island"
	"github.com/holomush/skyblock/internal/island/memstore"
	"github.com/holomush/skyblock/pkg/errutil"
)

const (
	world = "skyblock"
	size  = 100
)

type fixture struct {
	controller *access.Controller
	operators  *accesstest.Operators
	owner      ulid.ULID
	member     ulid.ULID
	stranger   ulid.ULID
	operator   ulid.ULID
}

// newFixture seeds an owned island in cell (0,0) and an unclaimed
// reservation in cell (1,0).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	reg := island.NewRegistry(memstore.New(), size)

	f := &fixture{
		owner:    ulid.Make(),
		member:   ulid.Make(),
		stranger: ulid.Make(),
		operator: ulid.Make(),
	}
	f.operators = accesstest.NewOperators(f.operator)

	owned := &island.Island{
		CellID: 0, World: world, X: 50, FloorY: 60, Z: 50, Size: size, Height: 128,
		Ownership: island.OwnedBy(f.owner), Sequence: 1, Locked: 1,
	}
	owned.AddMember(f.member)
	require.NoError(t, reg.Insert(ctx, owned))

	reserved := &island.Island{
		CellID: 1, World: world, X: 150, FloorY: 60, Z: 50, Size: size, Height: 128,
		Ownership: island.Unclaimed(),
	}
	require.NoError(t, reg.Insert(ctx, reserved))

	f.controller = access.NewController(reg, f.operators, access.MustWorldMatcher(world))
	return f
}

func at(w string, x, z int) island.Location {
	return island.Location{World: w, X: x, Y: 64, Z: z}
}

func TestController_CanAccess(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		actor ulid.ULID
		isOp  bool
		loc   island.Location
		want  bool
	}{
		{"owner on own island", f.owner, false, at(world, 10, 90), true},
		{"member on island", f.member, false, at(world, 99, 0), true},
		{"stranger on locked island", f.stranger, false, at(world, 50, 50), false},
		{"operator flag always passes", f.stranger, true, at(world, 50, 50), true},
		{"outside managed world", f.stranger, false, at("world", 50, 50), true},
		{"empty cell", f.owner, false, at(world, 550, 550), false},
		{"unclaimed reservation", f.owner, false, at(world, 150, 50), false},
		{"owner next door", f.owner, false, at(world, 100, 50), false},
		{"similarly named unmanaged world", f.stranger, false, at("SKYBLOCK_nether", 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.controller.CanAccess(context.Background(), tt.actor, tt.isOp, tt.loc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestController_CanAccess_RegistryErrorDenies(t *testing.T) {
	resolver := &accesstest.MockResolver{}
	resolver.On("LookupByLocation", mock.Anything, world, 5, 5).
		Return(nil, errors.Join(island.ErrPersistence, errors.New("db down")))

	c := access.NewController(resolver, accesstest.NobodyPrivileged{}, access.MustWorldMatcher(world))
	assert.False(t, c.CanAccess(context.Background(), ulid.Make(), false, at(world, 5, 5)))
	resolver.AssertExpectations(t)
}

func TestController_CanKick(t *testing.T) {
	f := newFixture(t)
	onIsland := at(world, 50, 50)

	tests := []struct {
		name     string
		req      func() access.KickRequest
		wantErr  error
		wantCode string
	}{
		{
			name: "owner kicks stranger",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: onIsland, Victim: f.stranger, VictimLocation: at(world, 1, 1)}
			},
		},
		{
			name: "member kicked by owner",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: onIsland, Victim: f.member, VictimLocation: onIsland}
			},
		},
		{
			name: "invoker does not own the island underfoot",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.member, OwnerLocation: onIsland, Victim: f.stranger, VictimLocation: onIsland}
			},
			wantErr:  island.ErrNotOwner,
			wantCode: island.CodeNotOwner,
		},
		{
			name: "invoker outside managed world",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: at("world", 50, 50), Victim: f.stranger, VictimLocation: onIsland}
			},
			wantErr: island.ErrNotOwner,
		},
		{
			name: "invoker on empty cell",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: at(world, 950, 950), Victim: f.stranger, VictimLocation: onIsland}
			},
			wantErr: island.ErrNotOwner,
		},
		{
			name: "self target",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: onIsland, Victim: f.owner, VictimLocation: onIsland}
			},
			wantErr:  island.ErrSelfTarget,
			wantCode: island.CodeSelfTarget,
		},
		{
			name: "privileged victim",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: onIsland, Victim: f.operator, VictimLocation: onIsland}
			},
			wantErr:  island.ErrPrivilegeViolation,
			wantCode: island.CodePrivilegeViolation,
		},
		{
			name: "victim on another cell",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: onIsland, Victim: f.stranger, VictimLocation: at(world, 150, 50)}
			},
			wantErr:  island.ErrNotPresent,
			wantCode: island.CodeNotPresent,
		},
		{
			name: "victim in another world",
			req: func() access.KickRequest {
				return access.KickRequest{Owner: f.owner, OwnerLocation: onIsland, Victim: f.stranger, VictimLocation: at("world", 50, 50)}
			},
			wantErr: island.ErrNotPresent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isl, err := f.controller.CanKick(context.Background(), tt.req())
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, 0, isl.CellID)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, isl)
			if tt.wantCode != "" {
				errutil.AssertErrorCode(t, err, tt.wantCode)
			}
		})
	}
}

func TestController_CanKick_PrivilegedOwnerMayKickOperator(t *testing.T) {
	f := newFixture(t)
	f.operators.Add(f.owner)

	_, err := f.controller.CanKick(context.Background(), access.KickRequest{
		Owner:          f.owner,
		OwnerLocation:  at(world, 50, 50),
		Victim:         f.operator,
		VictimLocation: at(world, 20, 20),
	})
	assert.NoError(t, err)
}

func TestController_CanKick_NegativeCoordinates(t *testing.T) {
	ctx := context.Background()
	reg := island.NewRegistry(memstore.New(), size)
	owner := ulid.Make()
	x, z := grid.CellCenter(-1, -1, size)
	require.NoError(t, reg.Insert(ctx, &island.Island{
		CellID: grid.CellID(x, z, size), World: world, X: x, Z: z, Size: size, Height: 128,
		Ownership: island.OwnedBy(owner), Sequence: 1,
	}))
	c := access.NewController(reg, accesstest.NobodyPrivileged{}, access.MustWorldMatcher(world))

	_, err := c.CanKick(ctx, access.KickRequest{
		Owner: owner, OwnerLocation: at(world, -1, -100),
		Victim: ulid.Make(), VictimLocation: at(world, -100, -1),
	})
	assert.NoError(t, err)

	_, err = c.CanKick(ctx, access.KickRequest{
		Owner: owner, OwnerLocation: at(world, -1, -1),
		Victim: ulid.Make(), VictimLocation: at(world, 0, -1),
	})
	assert.ErrorIs(t, err, island.ErrNotPresent)
}
