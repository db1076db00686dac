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

// Package policy defines the execution policies a statement can carry.
//
// A policy selects how a loop's index space maps onto execution units. The
// set of kinds is closed: the executor registry has one entry per
// (statement kind, policy kind) pair it supports, and a pair without an entry
// fails kernel compilation.
package policy

import "fmt"

// Kind is the tag of a policy.
type Kind int

const (
	// None is the policy of statements that do not map an index space
	// (Lambda, Sync, Launch).
	None Kind = iota

	// Seq runs the whole range in-process, once, always active.
	Seq

	// Simd runs the range in register-width chunks; tail lanes are inactive.
	Simd

	// Parallel splits the range across the worker pool.
	Parallel

	// Direct maps one execution unit to one index given by an Indexer.
	Direct

	// Loop is a strided loop whose start and stride come from an Indexer.
	Loop

	// WarpDirect maps warp lane threadIdx.x to one index.
	WarpDirect

	// WarpLoop strides by the warp size from lane threadIdx.x.
	WarpLoop

	// WarpMaskedDirect is WarpDirect on the lane extracted by a BitMask.
	WarpMaskedDirect

	// WarpMaskedLoop is WarpLoop on the lane extracted by a BitMask, striding
	// by the mask's size.
	WarpMaskedLoop

	// ThreadMaskedDirect is WarpMaskedDirect without the warp width bound.
	ThreadMaskedDirect

	// ThreadMaskedLoop is WarpMaskedLoop without the warp width bound.
	ThreadMaskedLoop

	// BlockReduce combines a param across the threads of a block.
	BlockReduce
)

var kindNames = map[Kind]string{
	None:               "none",
	Seq:                "seq",
	Simd:               "simd",
	Parallel:           "parallel",
	Direct:             "direct",
	Loop:               "loop",
	WarpDirect:         "warp_direct",
	WarpLoop:           "warp_loop",
	WarpMaskedDirect:   "warp_masked_direct",
	WarpMaskedLoop:     "warp_masked_loop",
	ThreadMaskedDirect: "thread_masked_direct",
	ThreadMaskedLoop:   "thread_masked_loop",
	BlockReduce:        "block_reduce",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every policy kind, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := None; k <= BlockReduce; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Policy is an execution policy value.
type Policy struct {
	kind    Kind
	indexer Indexer
	mask    BitMask
	width   int
}

// Kind returns the policy tag.
func (p Policy) Kind() Kind { return p.kind }

// Indexer returns the indexer of a Direct or Loop policy.
func (p Policy) Indexer() Indexer { return p.indexer }

// Mask returns the bit mask of a masked policy.
func (p Policy) Mask() BitMask { return p.mask }

// Width returns the lane count requested by a Simd policy, 0 for the
// detected register width.
func (p Policy) Width() int { return p.width }

// Masked reports whether the policy extracts its lane through a BitMask.
func (p Policy) Masked() bool {
	switch p.kind {
	case WarpMaskedDirect, WarpMaskedLoop, ThreadMaskedDirect, ThreadMaskedLoop:
		return true
	}
	return false
}

func (p Policy) String() string {
	switch {
	case p.kind == Direct || p.kind == Loop:
		return fmt.Sprintf("%s<%s>", p.kind, p.indexer)
	case p.Masked():
		return fmt.Sprintf("%s<%s>", p.kind, p.mask)
	case p.kind == Simd && p.width > 0:
		return fmt.Sprintf("simd<%d>", p.width)
	}
	return p.kind.String()
}

// NoPolicy returns the policy of non-loop statements.
func NoPolicy() Policy { return Policy{kind: None} }

// SeqExec returns the sequential policy.
func SeqExec() Policy { return Policy{kind: Seq} }

// SimdExec returns the SIMD policy. width <= 0 selects the lane count of
// 8-byte elements at the detected register width.
func SimdExec(width int) Policy { return Policy{kind: Simd, width: max(0, width)} }

// ParallelExec returns the multi-threaded host policy.
func ParallelExec() Policy { return Policy{kind: Parallel} }

// DirectExec maps the unit given by ix directly to an index.
func DirectExec(ix Indexer) Policy { return Policy{kind: Direct, indexer: ix} }

// LoopExec loops from ix.Index with stride ix.Size.
func LoopExec(ix Indexer) Policy { return Policy{kind: Loop, indexer: ix} }

// WarpDirectExec maps each warp lane to one index.
func WarpDirectExec() Policy { return Policy{kind: WarpDirect} }

// WarpLoopExec strides each warp lane by the warp size.
func WarpLoopExec() Policy { return Policy{kind: WarpLoop} }

// WarpMaskedDirectExec maps the lane extracted by m to one index.
func WarpMaskedDirectExec(m BitMask) Policy { return Policy{kind: WarpMaskedDirect, mask: m} }

// WarpMaskedLoopExec strides the lane extracted by m by m.MaxMaskedSize().
func WarpMaskedLoopExec(m BitMask) Policy { return Policy{kind: WarpMaskedLoop, mask: m} }

// ThreadMaskedDirectExec maps the thread lane extracted by m to one index.
func ThreadMaskedDirectExec(m BitMask) Policy { return Policy{kind: ThreadMaskedDirect, mask: m} }

// ThreadMaskedLoopExec strides the thread lane extracted by m.
func ThreadMaskedLoopExec(m BitMask) Policy { return Policy{kind: ThreadMaskedLoop, mask: m} }

// BlockReduceExec combines a reduction param across a thread block.
func BlockReduceExec() Policy { return Policy{kind: BlockReduce} }

// Shorthands for the common indexers.
var (
	ThreadXDirect = DirectExec(Indexer{Level: Thread, Dim: X})
	ThreadYDirect = DirectExec(Indexer{Level: Thread, Dim: Y})
	ThreadXLoop   = LoopExec(Indexer{Level: Thread, Dim: X})
	ThreadYLoop   = LoopExec(Indexer{Level: Thread, Dim: Y})
	BlockXDirect  = DirectExec(Indexer{Level: Block, Dim: X})
	BlockXLoop    = LoopExec(Indexer{Level: Block, Dim: X})
	BlockYLoop    = LoopExec(Indexer{Level: Block, Dim: Y})
	GlobalXDirect = DirectExec(Indexer{Level: Global, Dim: X})
	GlobalXLoop   = LoopExec(Indexer{Level: Global, Dim: X})
)
