// Copyright 2025 go-loopnest Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package policy

import (
	"fmt"
	"strconv"
)

// Dim3 is a 3D extent or coordinate of the SIMT grid.
type Dim3 struct {
	X, Y, Z int
}

// D1 returns the extent {x, 1, 1}.
func D1(x int) Dim3 { return Dim3{X: x, Y: 1, Z: 1} }

// Size returns X*Y*Z with zero extents counted as 1.
func (d Dim3) Size() int {
	return max(d.X, 1) * max(d.Y, 1) * max(d.Z, 1)
}

// Normalize replaces zero extents by 1.
func (d Dim3) Normalize() Dim3 {
	return Dim3{X: max(d.X, 1), Y: max(d.Y, 1), Z: max(d.Z, 1)}
}

// Get returns the component along dim.
func (d Dim3) Get(dim Dim) int {
	switch dim {
	case Y:
		return d.Y
	case Z:
		return d.Z
	}
	return d.X
}

// Unlinear converts a linear id within extent d to coordinates, X fastest.
func (d Dim3) Unlinear(linear int) Dim3 {
	d = d.Normalize()
	return Dim3{
		X: linear % d.X,
		Y: (linear / d.X) % d.Y,
		Z: linear / (d.X * d.Y),
	}
}

func (d Dim3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", d.X, d.Y, d.Z)
}

// Coords identifies one simulated thread of a launch.
type Coords struct {
	ThreadIdx, BlockIdx Dim3
	BlockDim, GridDim   Dim3
}

// Level is the thread hierarchy level an Indexer reads.
type Level int

const (
	// Thread indexes threads within a block.
	Thread Level = iota
	// Block indexes blocks within the grid.
	Block
	// Global indexes threads across the grid.
	Global
)

func (l Level) String() string {
	switch l {
	case Thread:
		return "thread"
	case Block:
		return "block"
	case Global:
		return "global"
	}
	return "unknown"
}

// Dim is a grid axis.
type Dim int

// Grid axes.
const (
	X Dim = iota
	Y
	Z
)

func (d Dim) String() string {
	return [...]string{"x", "y", "z"}[d]
}

// Indexer reports a unit's index and the number of units along one axis of
// one hierarchy level.
type Indexer struct {
	Level Level
	Dim   Dim
}

// Index returns the index of the unit at c.
func (ix Indexer) Index(c Coords) int {
	switch ix.Level {
	case Block:
		return c.BlockIdx.Get(ix.Dim)
	case Global:
		return c.BlockIdx.Get(ix.Dim)*c.BlockDim.Get(ix.Dim) + c.ThreadIdx.Get(ix.Dim)
	}
	return c.ThreadIdx.Get(ix.Dim)
}

// Size returns the number of units along the indexer's axis.
func (ix Indexer) Size(c Coords) int {
	switch ix.Level {
	case Block:
		return c.GridDim.Get(ix.Dim)
	case Global:
		return c.GridDim.Get(ix.Dim) * c.BlockDim.Get(ix.Dim)
	}
	return c.BlockDim.Get(ix.Dim)
}

func (ix Indexer) String() string {
	return fmt.Sprintf("%s_%s", ix.Level, ix.Dim)
}

// BitMask extracts a sub-lane id from a thread id: the Width bits starting
// at bit Shift.
type BitMask struct {
	Width uint
	Shift uint
}

// MaskValue returns (v >> Shift) & (2^Width - 1).
func (m BitMask) MaskValue(v int) int {
	return (v >> m.Shift) & (1<<m.Width - 1)
}

// MaxMaskedSize returns the number of distinct masked values, 2^Width. It
// returns 0 when 2^Width does not fit in an int.
func (m BitMask) MaxMaskedSize() int {
	if m.Width >= strconv.IntSize-1 {
		return 0
	}
	return 1 << m.Width
}

func (m BitMask) String() string {
	return fmt.Sprintf("mask<%d,%d>", m.Width, m.Shift)
}

// Platform selects the warp width defaults of a launch.
type Platform int

const (
	// CUDA warps have 32 lanes.
	CUDA Platform = iota
	// HIP wavefronts have 64 lanes.
	HIP
)

// WarpSize returns the platform's native warp width.
func (p Platform) WarpSize() int {
	if p == HIP {
		return 64
	}
	return 32
}

func (p Platform) String() string {
	if p == HIP {
		return "hip"
	}
	return "cuda"
}

// LaunchConfig is the grid shape of a Launch statement.
type LaunchConfig struct {
	Platform Platform
	Blocks   Dim3
	Threads  Dim3
	// WarpSize overrides the platform warp width when positive.
	WarpSize int
}

// Warp returns the effective warp width.
func (c LaunchConfig) Warp() int {
	if c.WarpSize > 0 {
		return c.WarpSize
	}
	return c.Platform.WarpSize()
}

func (c LaunchConfig) String() string {
	return fmt.Sprintf("%s<<<%s, %s>>> warp=%d", c.Platform, c.Blocks.Normalize(), c.Threads.Normalize(), c.Warp())
}
