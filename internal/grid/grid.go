// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package grid maps world coordinates onto the fixed-size island grid.
//
// A cell is a size x size square of the X/Z plane. Every cell is addressed
// by an integer key derived from the floored cell indices, so negative
// coordinates land in the cell below them rather than collapsing onto
// cell zero.
package grid

// Stride is the multiplier applied to the Z cell index when packing a key.
const Stride = 10000

// InjectiveRange is the largest absolute cell index per axis for which
// CellID never collides. Indices at or beyond it may alias a neighbour
// row; that is an accepted limit of the key format.
const InjectiveRange = Stride / 2

// CellID returns the key of the cell containing (x, z).
func CellID(x, z, size int) int {
	mustPositive(size)
	return floorDiv(x, size) + floorDiv(z, size)*Stride
}

// CellOrigin snaps (x, z) down to the minimum corner of its cell.
func CellOrigin(x, z, size int) (originX, originZ int) {
	mustPositive(size)
	return x - floorMod(x, size), z - floorMod(z, size)
}

// CellCenter returns the center block of the cell containing (x, z).
func CellCenter(x, z, size int) (centerX, centerZ int) {
	ox, oz := CellOrigin(x, z, size)
	return ox + size/2, oz + size/2
}

// CellIndex returns the floored (column, row) indices of the cell containing (x, z).
func CellIndex(x, z, size int) (col, row int) {
	mustPositive(size)
	return floorDiv(x, size), floorDiv(z, size)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func mustPositive(size int) {
	if size <= 0 {
		panic("grid: cell size must be positive")
	}
}
