// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package island

import (
	"math/rand/v2"
	"sync"
)

// OffsetSource picks the candidate offsets the planner probes on each ring.
// Offsets must lie in [0, width); width is always positive when called.
type OffsetSource interface {
	Offsets(ring, width int) (wx, wz int)
}

// OffsetFunc adapts a function to OffsetSource.
type OffsetFunc func(ring, width int) (wx, wz int)

// Offsets implements OffsetSource.
func (f OffsetFunc) Offsets(ring, width int) (wx, wz int) {
	return f(ring, width)
}

// RandomOffsets draws uniform offsets from a PCG generator.
// It is safe for concurrent use.
type RandomOffsets struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomOffsets returns a source seeded with seed. A zero seed picks a
// random one.
func NewRandomOffsets(seed uint64) *RandomOffsets {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomOffsets{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Offsets implements OffsetSource.
func (r *RandomOffsets) Offsets(_, width int) (wx, wz int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(width), r.rng.IntN(width)
}

// SequenceOffsets replays a fixed list of offsets, one pair per call,
// and then falls back to the far corner of each ring.
type SequenceOffsets struct {
	mu    sync.Mutex
	pairs [][2]int
	next  int
}

// NewSequenceOffsets returns a source that yields pairs in order.
func NewSequenceOffsets(pairs ...[2]int) *SequenceOffsets {
	return &SequenceOffsets{pairs: pairs}
}

// Offsets implements OffsetSource.
func (s *SequenceOffsets) Offsets(_, width int) (wx, wz int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next < len(s.pairs) {
		p := s.pairs[s.next]
		s.next++
		return clampOffset(p[0], width), clampOffset(p[1], width)
	}
	return width - 1, width - 1
}

func clampOffset(v, width int) int {
	if v < 0 {
		return 0
	}
	if v >= width {
		return width - 1
	}
	return v
}
