// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFootprint(t *testing.T) {
	t.Run("uses x and z independently", func(t *testing.T) {
		b := Footprint(150, 350, 100, 0, 127)
		assert.Equal(t, Point{X: 100, Y: 0, Z: 300}, b.Min)
		assert.Equal(t, Point{X: 199, Y: 127, Z: 399}, b.Max)
	})

	t.Run("negative coordinates", func(t *testing.T) {
		b := Footprint(-50, -150, 100, 0, 10)
		assert.Equal(t, Point{X: -100, Y: 0, Z: -200}, b.Min)
		assert.Equal(t, Point{X: -1, Y: 10, Z: -101}, b.Max)
	})

	t.Run("swapped height range", func(t *testing.T) {
		b := Footprint(0, 0, 10, 20, 5)
		assert.Equal(t, 5, b.Min.Y)
		assert.Equal(t, 20, b.Max.Y)
	})
}

func TestBoundsContains(t *testing.T) {
	b := Footprint(0, 0, 100, 0, 127)

	assert.True(t, b.Contains(Point{X: 0, Y: 0, Z: 0}))
	assert.True(t, b.Contains(Point{X: 99, Y: 127, Z: 99}))
	assert.False(t, b.Contains(Point{X: 100, Y: 0, Z: 0}))
	assert.False(t, b.Contains(Point{X: 0, Y: 128, Z: 0}))
	assert.False(t, b.Contains(Point{X: 0, Y: 0, Z: -1}))
}

func TestBoundsVolume(t *testing.T) {
	assert.Equal(t, 100*128*100, Footprint(0, 0, 100, 0, 127).Volume())
	assert.Equal(t, 1, Footprint(0, 0, 1, 0, 0).Volume())
}
