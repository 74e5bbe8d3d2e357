// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package island contains the island model, the registry that owns the
// canonical island records, and the planner that allocates free cells.
package island

import (
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/skyblock/internal/grid"
)

// Location is an integer block position inside a named world.
type Location struct {
	World string
	X     int
	Y     int
	Z     int
}

// Point returns the location as a grid point.
func (l Location) Point() grid.Point {
	return grid.Point{X: l.X, Y: l.Y, Z: l.Z}
}

// Ownership records who, if anyone, owns an island.
// The zero value is unclaimed.
type Ownership struct {
	owner   ulid.ULID
	claimed bool
}

// Unclaimed returns the ownership of a reserved slot with no owner.
func Unclaimed() Ownership {
	return Ownership{}
}

// OwnedBy returns ownership assigned to id.
func OwnedBy(id ulid.ULID) Ownership {
	return Ownership{owner: id, claimed: true}
}

// Owner returns the owner and true, or a zero ULID and false when unclaimed.
func (o Ownership) Owner() (ulid.ULID, bool) {
	return o.owner, o.claimed
}

// Claimed reports whether the island has an owner.
func (o Ownership) Claimed() bool {
	return o.claimed
}

// IsOwnedBy reports whether id owns the island.
func (o Ownership) IsOwnedBy(id ulid.ULID) bool {
	return o.claimed && o.owner == id
}

// String returns the owner ULID or "unclaimed".
func (o Ownership) String() string {
	if !o.claimed {
		return "unclaimed"
	}
	return o.owner.String()
}

// Island is one claimed or reserved parcel of the island world.
type Island struct {
	CellID    int
	World     string
	X         int
	FloorY    int
	Z         int
	Size      int
	Height    int // vertical extent from the world floor, cleared on reset
	Ownership Ownership
	Sequence  int // per-owner island number, 1-based
	Members   []ulid.ULID
	Name      string
	Biome     string
	TeamID    string // empty when the island belongs to no team
	Locked    int    // 0 = open to visitors
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the registry key for the island.
func (i *Island) Key() CellKey {
	return CellKey{World: i.World, CellID: i.CellID}
}

// Home returns the location actors are sent to when teleporting to the island.
func (i *Island) Home() Location {
	return Location{World: i.World, X: i.X, Y: i.FloorY, Z: i.Z}
}

// Footprint returns the block volume the island occupies, from the floor of
// the world up to Height-1.
func (i *Island) Footprint() grid.Bounds {
	return grid.Footprint(i.X, i.Z, i.Size, 0, max(i.Height, 1)-1)
}

// IsOwnedBy reports whether actor owns the island.
func (i *Island) IsOwnedBy(actor ulid.ULID) bool {
	return i.Ownership.IsOwnedBy(actor)
}

// HasMember reports whether actor has been granted membership.
func (i *Island) HasMember(actor ulid.ULID) bool {
	return slices.Contains(i.Members, actor)
}

// AddMember grants membership to actor. It returns false if actor already
// was a member.
func (i *Island) AddMember(actor ulid.ULID) bool {
	if i.HasMember(actor) {
		return false
	}
	i.Members = append(i.Members, actor)
	return true
}

// RemoveMember revokes membership. It returns false if actor was not a member.
func (i *Island) RemoveMember(actor ulid.ULID) bool {
	idx := slices.Index(i.Members, actor)
	if idx < 0 {
		return false
	}
	i.Members = slices.Delete(i.Members, idx, idx+1)
	return true
}

// CanEnter reports whether actor is the owner or a member.
// Membership never implies ownership.
func (i *Island) CanEnter(actor ulid.ULID) bool {
	return i.IsOwnedBy(actor) || i.HasMember(actor)
}

// Clone returns a deep copy so callers never alias registry state.
func (i *Island) Clone() *Island {
	if i == nil {
		return nil
	}
	c := *i
	c.Members = slices.Clone(i.Members)
	return &c
}

// CellKey identifies a cell within a world.
type CellKey struct {
	World  string
	CellID int
}
