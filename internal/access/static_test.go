// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package access_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/pkg/errutil"
)

func TestStaticPrivileges_DefaultRoles(t *testing.T) {
	ctx := context.Background()
	p := access.NewDefaultPrivileges()
	player, op, nobody := ulid.Make(), ulid.Make(), ulid.Make()
	require.NoError(t, p.Assign(player, access.RolePlayer))
	require.NoError(t, p.Assign(op, access.RoleOperator))

	tests := []struct {
		name  string
		actor ulid.ULID
		perm  string
		want  bool
	}{
		{"player may create", player, access.PermCreate, true},
		{"player may kick", player, access.PermKick, true},
		{"player has no bypass", player, access.PermBypass, false},
		{"operator has bypass", op, access.PermBypass, true},
		{"operator may reset", op, access.PermReset, true},
		{"no role has nothing", nobody, access.PermVisit, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.HasPermission(ctx, tt.actor, tt.perm))
		})
	}

	assert.True(t, p.IsPrivileged(ctx, op))
	assert.False(t, p.IsPrivileged(ctx, player))
}

func TestStaticPrivileges_SingleStarStopsAtSeparator(t *testing.T) {
	p, err := access.NewStaticPrivileges(map[string][]string{"mod": {"island:*"}})
	require.NoError(t, err)
	mod := ulid.Make()
	require.NoError(t, p.Assign(mod, "mod"))

	assert.True(t, p.HasPermission(context.Background(), mod, access.PermKick))
	assert.False(t, p.IsPrivileged(context.Background(), mod))
}

func TestStaticPrivileges_AssignAndRevoke(t *testing.T) {
	p := access.NewDefaultPrivileges()
	actor := ulid.Make()

	err := p.Assign(actor, "wizard")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "UNKNOWN_ROLE")

	require.NoError(t, p.Assign(actor, access.RoleOperator))
	assert.Equal(t, access.RoleOperator, p.Role(actor))

	p.Revoke(actor)
	assert.Empty(t, p.Role(actor))
	assert.False(t, p.IsPrivileged(context.Background(), actor))
}

func TestNewStaticPrivileges_InvalidPattern(t *testing.T) {
	_, err := access.NewStaticPrivileges(map[string][]string{"broken": {"island:["}})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_PERMISSION_PATTERN")
}
