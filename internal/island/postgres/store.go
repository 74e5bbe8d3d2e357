// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides the PostgreSQL island.Store.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/island"
)

// poolIface is the subset of *pgxpool.Pool the store uses.
// pgxmock.PgxPoolIface satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const islandColumns = `world_name, cell_id, x, floor_y, z, size, height, owner_id, sequence, members, name, biome, team_id, locked, created_at, updated_at`

// Store implements island.Store using PostgreSQL.
type Store struct {
	pool poolIface
}

// NewStore creates a new Store.
func NewStore(pool poolIface) *Store {
	return &Store{pool: pool}
}

// Get retrieves the island at (world, cellID).
func (s *Store) Get(ctx context.Context, world string, cellID int) (*island.Island, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+islandColumns+`
		FROM islands WHERE world_name = $1 AND cell_id = $2`, world, cellID)
	isl, err := scanIsland(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(island.CodeNotFound).
			With("world", world).
			With("cell_id", cellID).
			Wrap(island.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get island").With("world", world).With("cell_id", cellID).Wrap(err)
	}
	return isl, nil
}

// ListByOwner returns the owner's islands ordered by sequence.
func (s *Store) ListByOwner(ctx context.Context, owner ulid.ULID) ([]*island.Island, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+islandColumns+`
		FROM islands WHERE owner_id = $1 ORDER BY sequence, created_at`, owner.String())
	if err != nil {
		return nil, oops.With("operation", "list islands by owner").With("owner", owner.String()).Wrap(err)
	}
	defer rows.Close()

	islands := make([]*island.Island, 0)
	for rows.Next() {
		isl, err := scanIsland(rows)
		if err != nil {
			return nil, err
		}
		islands = append(islands, isl)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate islands").Wrap(err)
	}
	return islands, nil
}

// InsertIfAbsent inserts isl unless its cell is already taken.
// A duplicate (owner, sequence) pair is reported as island.ErrSequenceTaken;
// the cell itself is guarded by ON CONFLICT and never raises.
func (s *Store) InsertIfAbsent(ctx context.Context, isl *island.Island) (bool, error) {
	tag, err := s.pool.Exec(ctx, `INSERT INTO islands (`+islandColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (world_name, cell_id) DO NOTHING`, islandArgs(isl)...)
	if isUniqueViolation(err) {
		return false, oops.Code(island.CodeSequenceTaken).
			With("world", isl.World).
			With("cell_id", isl.CellID).
			With("sequence", isl.Sequence).
			Wrap(errors.Join(island.ErrSequenceTaken, err))
	}
	if err != nil {
		return false, oops.With("operation", "insert island").With("cell_id", isl.CellID).Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Save overwrites the mutable fields of an existing island. created_at is kept.
func (s *Store) Save(ctx context.Context, isl *island.Island) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE islands SET x = $3, floor_y = $4, z = $5, size = $6, height = $7,
		owner_id = $8, sequence = $9, members = $10, name = $11, biome = $12, team_id = $13,
		locked = $14, updated_at = $15
		WHERE world_name = $1 AND cell_id = $2`, saveArgs(isl)...)
	if isUniqueViolation(err) {
		return false, oops.Code(island.CodeSequenceTaken).
			With("cell_id", isl.CellID).
			With("sequence", isl.Sequence).
			Wrap(errors.Join(island.ErrSequenceTaken, err))
	}
	if err != nil {
		return false, oops.With("operation", "save island").With("cell_id", isl.CellID).Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the island at (world, cellID).
func (s *Store) Delete(ctx context.Context, world string, cellID int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM islands WHERE world_name = $1 AND cell_id = $2`, world, cellID)
	if err != nil {
		return oops.With("operation", "delete island").With("cell_id", cellID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code(island.CodeNotFound).
			With("world", world).
			With("cell_id", cellID).
			Wrap(island.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// islandArgs returns the column values in islandColumns order.
func islandArgs(isl *island.Island) []any {
	owner := ""
	if id, ok := isl.Ownership.Owner(); ok {
		owner = id.String()
	}
	return []any{
		isl.World, isl.CellID, isl.X, isl.FloorY, isl.Z, isl.Size, isl.Height,
		owner, isl.Sequence, membersToStrings(isl.Members), isl.Name, isl.Biome,
		isl.TeamID, isl.Locked, isl.CreatedAt, isl.UpdatedAt,
	}
}

// saveArgs is islandArgs without created_at.
func saveArgs(isl *island.Island) []any {
	args := islandArgs(isl)
	return append(args[:14], isl.UpdatedAt)
}

func scanIsland(row pgx.Row) (*island.Island, error) {
	var (
		isl     island.Island
		owner   string
		members []string
	)
	err := row.Scan(
		&isl.World, &isl.CellID, &isl.X, &isl.FloorY, &isl.Z, &isl.Size, &isl.Height,
		&owner, &isl.Sequence, &members, &isl.Name, &isl.Biome,
		&isl.TeamID, &isl.Locked, &isl.CreatedAt, &isl.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, oops.With("operation", "scan island").Wrap(err)
	}

	if owner != "" {
		id, err := ulid.Parse(owner)
		if err != nil {
			return nil, oops.With("operation", "parse owner_id").With("owner_id", owner).Wrap(err)
		}
		isl.Ownership = island.OwnedBy(id)
	}
	isl.Members, err = parseMembers(members)
	if err != nil {
		return nil, err
	}
	return &isl, nil
}

func membersToStrings(members []ulid.ULID) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.String()
	}
	return out
}

func parseMembers(raw []string) ([]ulid.ULID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]ulid.ULID, 0, len(raw))
	for _, s := range raw {
		id, err := ulid.Parse(s)
		if err != nil {
			return nil, oops.With("operation", "parse member").With("member", s).Wrap(err)
		}
		out = append(out, id)
	}
	return out, nil
}

// Compile-time interface check.
var _ island.Store = (*Store)(nil)
