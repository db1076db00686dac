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

// Package reduce implements reducers and the init/combine/resolve protocol
// executors drive them with.
//
// A Reducer holds a working value and a pointer to the accumulator the
// caller reads after the kernel. Its lifecycle within one kernel run is:
//
//   - Init once per execution-context replica: the working value becomes the
//     operator identity,
//   - Combine whenever two replicas' partial results merge,
//   - Resolve exactly once, after every Combine: the target becomes
//     op(val, *target), so results accumulate into what the target held.
//
// Resolve consumes the reducer; a second Resolve fails with
// ErrAlreadyResolved instead of applying contributions twice.
package reduce

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyResolved is returned when a reducer is resolved twice.
	ErrAlreadyResolved = errors.New("reducer already resolved")
	// ErrReplicaResolve is returned when a replica, rather than the reducer
	// the caller created, is resolved.
	ErrReplicaResolve = errors.New("cannot resolve a reducer replica")
)

// Param is the type-erased view of a reducer that executors use.
type Param interface {
	// Replicate returns a new replica in its initial state, sharing the
	// target. It satisfies data.Replicator.
	Replicate() any
	// Reset sets the working value to the identity.
	Reset()
	// CombineFrom merges in's working value into the receiver's. in must be
	// a reducer of the same type.
	CombineFrom(in Param)
	// Resolve folds the working value into the target.
	Resolve() error
	// Resolved reports whether Resolve succeeded.
	Resolved() bool
	// OpName names the operator.
	OpName() string
}

// Reducer accumulates values of type T with an Op.
type Reducer[T any] struct {
	op       Op[T]
	val      T
	target   *T
	replica  bool
	resolved bool
}

// New returns a reducer folding into target. The working value starts at
// the identity.
func New[T any](op Op[T], target *T) *Reducer[T] {
	return &Reducer[T]{op: op, val: op.Identity(), target: target}
}

// Value returns the working value.
func (r *Reducer[T]) Value() T {
	return r.val
}

// Apply folds v into the working value. Kernel bodies call it.
func (r *Reducer[T]) Apply(v T) {
	r.val = r.op.Combine(r.val, v)
}

// Target returns the accumulator the reducer resolves into.
func (r *Reducer[T]) Target() *T {
	return r.target
}

// Op returns the operator.
func (r *Reducer[T]) Op() Op[T] {
	return r.op
}

// OpName names the operator.
func (r *Reducer[T]) OpName() string {
	return r.op.Name()
}

// Resolved reports whether Resolve succeeded.
func (r *Reducer[T]) Resolved() bool {
	return r.resolved
}

// Replicate returns a replica holding the identity and sharing the target.
func (r *Reducer[T]) Replicate() any {
	return &Reducer[T]{op: r.op, val: r.op.Identity(), target: r.target, replica: true}
}

// Reset sets the working value to the identity.
func (r *Reducer[T]) Reset() {
	r.val = r.op.Identity()
}

// CombineFrom sets the working value to op(r.val, in.val).
func (r *Reducer[T]) CombineFrom(in Param) {
	r.val = r.op.Combine(r.val, in.(*Reducer[T]).val)
}

// Resolve sets *target to op(val, *target).
func (r *Reducer[T]) Resolve() error {
	switch {
	case r.replica:
		return ErrReplicaResolve
	case r.resolved:
		return ErrAlreadyResolved
	case r.target == nil:
		return errors.Errorf("%s reducer has no target", r.op.Name())
	}
	*r.target = r.op.Combine(r.val, *r.target)
	r.resolved = true
	return nil
}

func (r *Reducer[T]) String() string {
	return fmt.Sprintf("Reducer<%s>(%v)", r.op.Name(), r.val)
}
