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

import "sync"

// Policy selects the backend a protocol serves.
type Policy int

const (
	// Seq is the single-unit host backend.
	Seq Policy = iota
	// Threads is the worker-pool host backend.
	Threads
	// Simt is the simulated GPU backend.
	Simt
)

func (p Policy) String() string {
	switch p {
	case Seq:
		return "seq"
	case Threads:
		return "threads"
	case Simt:
		return "simt"
	}
	return "unknown"
}

// Init sets the working value of r to the identity. It must run before any
// Combine into r.
func Init[T any](p Policy, r *Reducer[T]) {
	NewProtocol(p).Init(r)
}

// Combine sets out's working value to op(out.val, in.val).
func Combine[T any](p Policy, out, in *Reducer[T]) {
	NewProtocol(p).Combine(out, in)
}

// Resolve sets *r.target to op(r.val, *r.target). It fails if r was already
// resolved or is a replica.
func Resolve[T any](p Policy, r *Reducer[T]) error {
	return NewProtocol(p).Resolve(r)
}

// Protocol is the backend-specific implementation of init, combine and
// resolve. Backends differ in how partial results meet: a Threads protocol
// lets workers combine concurrently as they finish, a Simt protocol
// combines lane partials pairwise like a warp shuffle.
type Protocol interface {
	Policy() Policy
	Init(r Param)
	Combine(out, in Param)
	// CombineAll folds every element of ins into out. Elements are consumed:
	// they are left holding the identity.
	CombineAll(out Param, ins []Param)
	Resolve(r Param) error
}

// NewProtocol returns the protocol of backend p.
func NewProtocol(p Policy) Protocol {
	switch p {
	case Threads:
		return &threadsProtocol{}
	case Simt:
		return simtProtocol{}
	}
	return seqProtocol{}
}

type seqProtocol struct{}

func (seqProtocol) Policy() Policy { return Seq }

func (seqProtocol) Init(r Param) { r.Reset() }

func (seqProtocol) Combine(out, in Param) { out.CombineFrom(in) }

// CombineAll folds ins left to right.
func (seqProtocol) CombineAll(out Param, ins []Param) {
	for _, in := range ins {
		out.CombineFrom(in)
		in.Reset()
	}
}

func (seqProtocol) Resolve(r Param) error { return r.Resolve() }

// threadsProtocol serializes combines into shared outputs so workers can
// merge their replica as soon as their chunk finishes.
type threadsProtocol struct {
	mu sync.Mutex
}

func (*threadsProtocol) Policy() Policy { return Threads }

func (*threadsProtocol) Init(r Param) { r.Reset() }

func (p *threadsProtocol) Combine(out, in Param) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out.CombineFrom(in)
}

func (p *threadsProtocol) CombineAll(out Param, ins []Param) {
	for _, in := range ins {
		p.Combine(out, in)
		in.Reset()
	}
}

func (*threadsProtocol) Resolve(r Param) error { return r.Resolve() }

type simtProtocol struct{}

func (simtProtocol) Policy() Policy { return Simt }

func (simtProtocol) Init(r Param) { r.Reset() }

func (simtProtocol) Combine(out, in Param) { out.CombineFrom(in) }

// CombineAll runs a shuffle-down tree over ins: at each step lane i takes
// lane i+offset, halving offset until lane 0 holds every contribution. The
// result is then folded into out.
func (simtProtocol) CombineAll(out Param, ins []Param) {
	n := len(ins)
	if n == 0 {
		return
	}
	width := 1
	for width < n {
		width <<= 1
	}
	for offset := width / 2; offset > 0; offset /= 2 {
		for lane := 0; lane < offset; lane++ {
			if lane+offset < n {
				ins[lane].CombineFrom(ins[lane+offset])
				ins[lane+offset].Reset()
			}
		}
	}
	out.CombineFrom(ins[0])
	ins[0].Reset()
}

func (simtProtocol) Resolve(r Param) error { return r.Resolve() }
