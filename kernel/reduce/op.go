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

package reduce

import "golang.org/x/exp/constraints"

// Op is a reduction operator with an identity element.
//
// Parallel policies combine partial results in an unspecified order, so Op
// must be associative and commutative for them.
type Op[T any] interface {
	Identity() T
	Combine(a, b T) T
	Name() string
}

// Number is a constraint for types with + and *.
type Number interface {
	constraints.Integer | constraints.Float
}

// Sum adds values; its identity is 0.
type Sum[T Number] struct{}

// Identity returns 0.
func (Sum[T]) Identity() T { return 0 }

// Combine returns a+b.
func (Sum[T]) Combine(a, b T) T { return a + b }

// Name returns "sum".
func (Sum[T]) Name() string { return "sum" }

// Prod multiplies values; its identity is 1.
type Prod[T Number] struct{}

// Identity returns 1.
func (Prod[T]) Identity() T { return 1 }

// Combine returns a*b.
func (Prod[T]) Combine(a, b T) T { return a * b }

// Name returns "prod".
func (Prod[T]) Name() string { return "prod" }

// Min keeps the smallest value; its identity is the largest value of T.
type Min[T constraints.Integer | constraints.Float] struct{}

// Identity returns the largest value of T (+Inf for floats).
func (Min[T]) Identity() T { return maxOf[T]() }

// Combine returns min(a, b).
func (Min[T]) Combine(a, b T) T { return min(a, b) }

// Name returns "min".
func (Min[T]) Name() string { return "min" }

// Max keeps the largest value; its identity is the smallest value of T.
type Max[T constraints.Integer | constraints.Float] struct{}

// Identity returns the smallest value of T (-Inf for floats).
func (Max[T]) Identity() T { return minOf[T]() }

// Combine returns max(a, b).
func (Max[T]) Combine(a, b T) T { return max(a, b) }

// Name returns "max".
func (Max[T]) Name() string { return "max" }

// BitOr ors values; its identity is 0.
type BitOr[T constraints.Integer] struct{}

// Identity returns 0.
func (BitOr[T]) Identity() T { return 0 }

// Combine returns a|b.
func (BitOr[T]) Combine(a, b T) T { return a | b }

// Name returns "or".
func (BitOr[T]) Name() string { return "or" }

// BitAnd ands values; its identity has every bit set.
type BitAnd[T constraints.Integer] struct{}

// Identity returns ^0.
func (BitAnd[T]) Identity() T { return ^T(0) }

// Combine returns a&b.
func (BitAnd[T]) Combine(a, b T) T { return a & b }

// Name returns "and".
func (BitAnd[T]) Name() string { return "and" }

// Func adapts an identity and a combine function to Op.
type Func[T any] struct {
	Ident T
	Fn    func(a, b T) T
	Label string
}

// Identity returns f.Ident.
func (f Func[T]) Identity() T { return f.Ident }

// Combine returns f.Fn(a, b).
func (f Func[T]) Combine(a, b T) T { return f.Fn(a, b) }

// Name returns f.Label.
func (f Func[T]) Name() string { return f.Label }
