// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package island

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/holomush/skyblock/internal/grid"
)

var tracer = otel.Tracer("skyblock/island")

// DefaultMaxAttempts bounds the allocation search in a pathologically full world.
const DefaultMaxAttempts = 1_000_000

// maxSequenceRetries bounds how often an allocation re-reads the owner's
// islands after another writer took the number it picked.
const maxSequenceRetries = 16

// StructurePlacer pastes the starting structure for a new island.
type StructurePlacer interface {
	Place(ctx context.Context, template string, origin Location, actor ulid.ULID, silent bool) error
}

// NoopPlacer places nothing. Useful for tooling that only manages records.
type NoopPlacer struct{}

// Place implements StructurePlacer.
func (NoopPlacer) Place(context.Context, string, Location, ulid.ULID, bool) error { return nil }

// PlannerConfig describes the island world the planner allocates in.
type PlannerConfig struct {
	World       string
	FloorY      int
	Height      int
	MaxAttempts int
	Template    string
	Name        string
	Biome       string
}

// AllocationRequest asks the planner for a fresh island.
type AllocationRequest struct {
	Actor    ulid.ULID
	Template string // empty uses the configured template
	Sequence int    // zero assigns the next free sequence for the actor
	Silent   bool
}

// Planner finds unused cells and turns them into owned islands.
// The registry's conditional insert is the only serialization point;
// the scan itself is best effort.
type Planner struct {
	registry *Registry
	placer   StructurePlacer
	offsets  OffsetSource
	cfg      PlannerConfig
}

// NewPlanner creates a planner. A nil placer places nothing and a nil
// offsets source draws random offsets.
func NewPlanner(registry *Registry, placer StructurePlacer, offsets OffsetSource, cfg PlannerConfig) *Planner {
	if placer == nil {
		placer = NoopPlacer{}
	}
	if offsets == nil {
		offsets = NewRandomOffsets(0)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Name == "" {
		cfg.Name = "My Island"
	}
	if cfg.Biome == "" {
		cfg.Biome = "PLAINS"
	}
	if cfg.Template == "" {
		cfg.Template = "default"
	}
	return &Planner{registry: registry, placer: placer, offsets: offsets, cfg: cfg}
}

// World returns the name of the island world.
func (p *Planner) World() string {
	return p.cfg.World
}

// InWorld reports whether loc lies in the island world.
func (p *Planner) InWorld(loc Location) bool {
	return strings.EqualFold(loc.World, p.cfg.World)
}

// Allocate searches ring by ring for a free cell and claims it for the actor.
// Lost cell races are retried on the next ring. Returns an error matching
// ErrAllocationExhausted once MaxAttempts candidates have been tried.
//
// A zero req.Sequence takes the owner's lowest free island number. If that
// number turns out to be taken the owner's islands are re-read and the same
// cell is tried again; an explicit req.Sequence that is taken fails with
// ErrSequenceTaken.
func (p *Planner) Allocate(ctx context.Context, req AllocationRequest) (isl *Island, err error) {
	ctx, span := tracer.Start(ctx, "island.allocate")
	span.SetAttributes(attribute.String("actor.id", req.Actor.String()))
	attempts := 0
	defer func() {
		switch {
		case err == nil:
			recordAllocation(AllocationSuccess, attempts)
			span.SetAttributes(attribute.Int("island.cell_id", isl.CellID))
		case errors.Is(err, ErrAllocationExhausted):
			recordAllocation(AllocationExhausted, attempts)
		default:
			recordAllocation(AllocationError, attempts)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("island.attempts", attempts))
		span.End()
	}()

	size := p.registry.CellSize()
	seqRetries := 0
	for ring := 0; ring < p.cfg.MaxAttempts; ring++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, persistenceError("allocate", ctxErr)
		}
		attempts++

		cx, cz := p.candidate(ring, size)
		cellID := grid.CellID(cx, cz, size)

		_, lookupErr := p.registry.LookupByCell(ctx, p.cfg.World, cellID)
		if lookupErr == nil {
			continue
		}
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, lookupErr
		}

		seq := req.Sequence
		if seq == 0 {
			next, seqErr := p.registry.NextSequence(ctx, req.Actor)
			if seqErr != nil {
				return nil, seqErr
			}
			seq = next
		}

		candidate := p.newIsland(req.Actor, cellID, cx, p.cfg.FloorY, cz, seq)
		insertErr := p.registry.Insert(ctx, candidate)
		if errors.Is(insertErr, ErrSequenceTaken) {
			if req.Sequence != 0 || seqRetries >= maxSequenceRetries {
				return nil, insertErr
			}
			seqRetries++
			slog.Debug("island number taken, re-reading owner",
				"actor_id", req.Actor.String(),
				"sequence", seq)
			ring--
			continue
		}
		if errors.Is(insertErr, ErrConflict) {
			AllocationConflicts.Inc()
			slog.Debug("allocation lost race, retrying",
				"actor_id", req.Actor.String(),
				"cell_id", cellID,
				"ring", ring)
			continue
		}
		if insertErr != nil {
			return nil, insertErr
		}

		slog.Info("island allocated",
			"actor_id", req.Actor.String(),
			"world", candidate.World,
			"cell_id", cellID,
			"sequence", seq,
			"attempts", attempts)

		p.place(ctx, candidate, req)
		return candidate.Clone(), nil
	}

	return nil, oops.Code(CodeAllocationExhausted).
		With("actor_id", req.Actor.String()).
		With("attempts", attempts).
		Wrap(ErrAllocationExhausted)
}

// Claim claims the exact cell under loc for the actor.
// Returns ErrNotManagedWorld outside the island world and ErrConflict when
// the cell is already taken.
func (p *Planner) Claim(ctx context.Context, actor ulid.ULID, loc Location) (*Island, error) {
	if !p.InWorld(loc) {
		return nil, oops.Code(CodeNotManagedWorld).With("world", loc.World).Wrap(ErrNotManagedWorld)
	}
	size := p.registry.CellSize()
	cellID := grid.CellID(loc.X, loc.Z, size)

	seq, err := p.registry.NextSequence(ctx, actor)
	if err != nil {
		return nil, err
	}
	isl := p.newIsland(actor, cellID, loc.X, loc.Y, loc.Z, seq)
	if err := p.registry.Insert(ctx, isl); err != nil {
		return nil, err
	}

	slog.Info("island claimed",
		"actor_id", actor.String(),
		"world", isl.World,
		"cell_id", cellID,
		"sequence", isl.Sequence)
	return isl.Clone(), nil
}

// candidate returns the center of the cell probed on the given ring.
func (p *Planner) candidate(ring, size int) (x, z int) {
	width := ring * size * 2
	wx, wz := 0, 0
	if width > 0 {
		wx, wz = p.offsets.Offsets(ring, width)
	}
	return grid.CellCenter(wx, wz, size)
}

func (p *Planner) newIsland(actor ulid.ULID, cellID, x, y, z, seq int) *Island {
	return &Island{
		CellID:    cellID,
		World:     p.cfg.World,
		X:         x,
		FloorY:    y,
		Z:         z,
		Size:      p.registry.CellSize(),
		Height:    p.cfg.Height,
		Ownership: OwnedBy(actor),
		Sequence:  seq,
		Name:      p.cfg.Name,
		Biome:     p.cfg.Biome,
	}
}

// place pastes the starting structure. The claim stands even if this fails.
func (p *Planner) place(ctx context.Context, isl *Island, req AllocationRequest) {
	template := req.Template
	if template == "" {
		template = p.cfg.Template
	}
	if err := p.placer.Place(ctx, template, isl.Home(), req.Actor, req.Silent); err != nil {
		slog.Warn("structure placement failed",
			"actor_id", req.Actor.String(),
			"cell_id", isl.CellID,
			"template", template,
			"code", CodePlacementFailed,
			"error", err)
	}
}
