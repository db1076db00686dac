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

// Package tensor evaluates elementwise expressions over float slices one
// register-width tile at a time.
//
// Expressions are built from Ref and Scalar leaves with Add, Sub and Mul.
// Contract rewrites every addition of a product into a single fused
// multiply-add node, which evaluates with one hwy.FMA call when the CPU has
// fused multiply-add and with Mul then Add otherwise.
//
//	e := tensor.Contract(tensor.Add(tensor.Mul(tensor.Scalar(a), tensor.Ref("x", x)), tensor.Ref("y", y)))
//	err := tensor.Assign(y, e) // y = a*x + y
package tensor

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ajroetker/go-loopnest/hwy"
)

// ErrShape is returned when an operand is shorter than the destination.
var ErrShape = errors.New("operand shorter than destination")

// Tile is the window an expression is evaluated on: Count valid lanes
// starting at element Offset. Lanes past Count evaluate to unspecified
// values and are never stored.
type Tile struct {
	Offset int
	Count  int
}

// Expr is an elementwise expression.
type Expr[T hwy.Floats] interface {
	// Eval computes the tile's lanes.
	Eval(t Tile) hwy.Vec[T]
	// Len returns the number of elements, or -1 for broadcasts.
	Len() int
	String() string
}

type ref[T hwy.Floats] struct {
	name string
	data []T
}

// Ref returns a leaf reading data. name is used when printing.
func Ref[T hwy.Floats](name string, data []T) Expr[T] {
	return ref[T]{name: name, data: data}
}

func (r ref[T]) Eval(t Tile) hwy.Vec[T] {
	src := r.data[t.Offset:]
	if t.Count < hwy.MaxLanes[T]() {
		return hwy.MaskLoad(hwy.TailMask[T](t.Count), src)
	}
	return hwy.Load(src)
}

func (r ref[T]) Len() int       { return len(r.data) }
func (r ref[T]) String() string { return r.name }

type scalar[T hwy.Floats] struct {
	v T
}

// Scalar returns a leaf broadcasting v to every lane.
func Scalar[T hwy.Floats](v T) Expr[T] {
	return scalar[T]{v: v}
}

func (s scalar[T]) Eval(Tile) hwy.Vec[T] { return hwy.Set(s.v) }
func (s scalar[T]) Len() int             { return -1 }
func (s scalar[T]) String() string       { return fmt.Sprintf("%g", float64(s.v)) }

type opKind int

const (
	opAdd opKind = iota
	opSub
	opMul
)

var opSymbols = [...]string{opAdd: "+", opSub: "-", opMul: "*"}

type binary[T hwy.Floats] struct {
	op   opKind
	a, b Expr[T]
}

// Add returns a + b.
func Add[T hwy.Floats](a, b Expr[T]) Expr[T] { return binary[T]{op: opAdd, a: a, b: b} }

// Sub returns a - b.
func Sub[T hwy.Floats](a, b Expr[T]) Expr[T] { return binary[T]{op: opSub, a: a, b: b} }

// Mul returns a * b.
func Mul[T hwy.Floats](a, b Expr[T]) Expr[T] { return binary[T]{op: opMul, a: a, b: b} }

func (e binary[T]) Eval(t Tile) hwy.Vec[T] {
	a, b := e.a.Eval(t), e.b.Eval(t)
	switch e.op {
	case opSub:
		return hwy.Sub(a, b)
	case opMul:
		return hwy.Mul(a, b)
	}
	return hwy.Add(a, b)
}

func (e binary[T]) Len() int { return minLen(e.a.Len(), e.b.Len()) }

func (e binary[T]) String() string {
	return fmt.Sprintf("(%s %s %s)", e.a, opSymbols[e.op], e.b)
}

// fused reports whether multiplyAdd uses the fused instruction.
var fused = hwy.HasFMA

// multiplyAdd is left*right + add. Only Contract builds it.
type multiplyAdd[T hwy.Floats] struct {
	left, right, add Expr[T]
}

func (e multiplyAdd[T]) Eval(t Tile) hwy.Vec[T] {
	l, r, a := e.left.Eval(t), e.right.Eval(t), e.add.Eval(t)
	if fused() {
		return hwy.FMA(l, r, a)
	}
	return hwy.Add(hwy.Mul(l, r), a)
}

func (e multiplyAdd[T]) Len() int {
	return minLen(minLen(e.left.Len(), e.right.Len()), e.add.Len())
}

func (e multiplyAdd[T]) String() string {
	return fmt.Sprintf("fma(%s, %s, %s)", e.left, e.right, e.add)
}

// Contract returns e with every Add(Mul(a, b), c) and Add(c, Mul(a, b))
// replaced by a fused multiply-add of a, b and c. Operands are contracted
// first, so nested sums of products fuse from the inside out.
func Contract[T hwy.Floats](e Expr[T]) Expr[T] {
	switch e := e.(type) {
	case binary[T]:
		a, b := Contract(e.a), Contract(e.b)
		if e.op == opAdd {
			if m, ok := a.(binary[T]); ok && m.op == opMul {
				return multiplyAdd[T]{left: m.a, right: m.b, add: b}
			}
			if m, ok := b.(binary[T]); ok && m.op == opMul {
				return multiplyAdd[T]{left: m.a, right: m.b, add: a}
			}
		}
		return binary[T]{op: e.op, a: a, b: b}
	case multiplyAdd[T]:
		return multiplyAdd[T]{left: Contract(e.left), right: Contract(e.right), add: Contract(e.add)}
	}
	return e
}

func minLen(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	}
	return min(a, b)
}

// Assign evaluates e into dst, one tile per register and a masked tile for
// the remainder.
func Assign[T hwy.Floats](dst []T, e Expr[T]) error {
	if n := e.Len(); n >= 0 && n < len(dst) {
		return errors.Wrapf(ErrShape, "%s has %d elements, destination %d", e, n, len(dst))
	}
	lanes := hwy.MaxLanes[T]()
	hwy.ProcessWithTail[T](len(dst),
		func(offset int) { AssignTile(dst, e, Tile{Offset: offset, Count: lanes}) },
		func(offset, count int) { AssignTile(dst, e, Tile{Offset: offset, Count: count}) })
	return nil
}

// AssignTile evaluates e on t and stores the tile's valid lanes into dst.
// Callers that schedule tiles themselves check shapes up front.
func AssignTile[T hwy.Floats](dst []T, e Expr[T], t Tile) {
	v := e.Eval(t)
	if t.Count >= hwy.MaxLanes[T]() {
		hwy.Store(v, dst[t.Offset:])
		return
	}
	hwy.MaskStore(hwy.TailMask[T](t.Count), v, dst[t.Offset:])
}

// TileAt returns the tile starting at offset of an n element operand.
func TileAt[T hwy.Floats](offset, n int) Tile {
	return Tile{Offset: offset, Count: min(hwy.MaxLanes[T](), n-offset)}
}

// Sum evaluates e over its first n elements and returns the total.
func Sum[T hwy.Floats](e Expr[T], n int) (T, error) {
	if l := e.Len(); l >= 0 && l < n {
		return 0, errors.Wrapf(ErrShape, "%s has %d elements, sum over %d", e, l, n)
	}
	var total T
	lanes := hwy.MaxLanes[T]()
	hwy.ProcessWithTail[T](n,
		func(offset int) {
			total += hwy.ReduceSum(e.Eval(Tile{Offset: offset, Count: lanes}))
		},
		func(offset, count int) {
			v := hwy.IfThenElseZero(hwy.TailMask[T](count), e.Eval(Tile{Offset: offset, Count: count}))
			total += hwy.ReduceSum(v)
		})
	return total, nil
}
