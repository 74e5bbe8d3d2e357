// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package grid

// Point is a block position in world space.
type Point struct {
	X int
	Y int
	Z int
}

// Bounds is an axis-aligned box with inclusive Min and Max corners.
type Bounds struct {
	Min Point
	Max Point
}

// Footprint returns the volume covered by the cell containing (x, z),
// spanning heights minY through maxY inclusive.
// X and Z are snapped independently.
func Footprint(x, z, size, minY, maxY int) Bounds {
	ox, oz := CellOrigin(x, z, size)
	if maxY < minY {
		minY, maxY = maxY, minY
	}
	return Bounds{
		Min: Point{X: ox, Y: minY, Z: oz},
		Max: Point{X: ox + size - 1, Y: maxY, Z: oz + size - 1},
	}
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Volume returns the number of blocks in the box.
func (b Bounds) Volume() int {
	return (b.Max.X - b.Min.X + 1) * (b.Max.Y - b.Min.Y + 1) * (b.Max.Z - b.Min.Z + 1)
}
