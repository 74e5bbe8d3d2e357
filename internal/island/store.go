// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package island

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Store is the durable backing for the registry.
// Implementations must make InsertIfAbsent a single conditional write.
type Store interface {
	// Get returns the island at (world, cellID), or an error matching ErrNotFound.
	Get(ctx context.Context, world string, cellID int) (*Island, error)

	// ListByOwner returns the owner's islands ordered by sequence.
	ListByOwner(ctx context.Context, owner ulid.ULID) ([]*Island, error)

	// InsertIfAbsent stores isl unless its cell is already taken.
	// Returns false, nil when another record occupies the cell.
	InsertIfAbsent(ctx context.Context, isl *Island) (bool, error)

	// Save replaces an existing record. Returns false, nil if it no longer exists.
	Save(ctx context.Context, isl *Island) (bool, error)

	// Delete removes the record at (world, cellID). Deleting a missing
	// record returns an error matching ErrNotFound.
	Delete(ctx context.Context, world string, cellID int) error
}
