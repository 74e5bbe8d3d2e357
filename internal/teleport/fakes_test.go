// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package teleport_test

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/skyblock/internal/grid"
	"github.com/holomush/skyblock/internal/island"
)

type move struct {
	Actor ulid.ULID
	To    island.Location
}

// recordingMover records moves. When gate is set, each move blocks until
// the gate is closed, and entered receives a value once the move starts.
type recordingMover struct {
	mu      sync.Mutex
	moves   []move
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (m *recordingMover) MoveActor(ctx context.Context, actor ulid.ULID, loc island.Location) error {
	if m.gate != nil {
		m.entered <- struct{}{}
		select {
		case <-m.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = append(m.moves, move{Actor: actor, To: loc})
	return m.err
}

func (m *recordingMover) Moves() []move {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]move(nil), m.moves...)
}

// mapLocator reports fixed positions; absent actors are offline.
type mapLocator struct {
	mu  sync.Mutex
	pos map[ulid.ULID]island.Location
}

func newLocator() *mapLocator {
	return &mapLocator{pos: make(map[ulid.ULID]island.Location)}
}

func (l *mapLocator) Set(actor ulid.ULID, loc island.Location) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pos[actor] = loc
}

func (l *mapLocator) LocateActor(_ context.Context, actor ulid.ULID) (island.Location, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loc, ok := l.pos[actor]
	return loc, ok
}

type clearCall struct {
	World  string
	Bounds grid.Bounds
}

type recordingClearer struct {
	mu    sync.Mutex
	calls []clearCall
	err   error
}

func (c *recordingClearer) Clear(_ context.Context, world string, bounds grid.Bounds) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, clearCall{World: world, Bounds: bounds})
	return c.err
}

func (c *recordingClearer) Calls() []clearCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]clearCall(nil), c.calls...)
}
