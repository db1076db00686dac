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

package exec

import (
	"github.com/ajroetker/go-loopnest/hwy/contrib/workerpool"
	"github.com/ajroetker/go-loopnest/kernel/arg"
	"github.com/ajroetker/go-loopnest/kernel/data"
	"github.com/ajroetker/go-loopnest/kernel/policy"
	"github.com/ajroetker/go-loopnest/kernel/reduce"
)

// Body is a kernel body. It receives the arguments its Lambda declared.
type Body func(args arg.Args)

// Fn is a compiled executor. active reports whether this execution unit
// applies effects; executors pass it down, narrowed by their own bounds.
type Fn func(f *Frame, active bool)

// Frame is the state an executor runs against: the execution context of
// the current unit plus what the unit needs to reach its neighbors.
type Frame struct {
	data       *data.Data
	bodies     []Body
	defaults   []arg.Single
	pool       *workerpool.Pool
	inParallel bool
	thread     *thread
}

// thread is the identity of one simulated SIMT thread.
type thread struct {
	coords policy.Coords
	lane   int
	warp   int
	block  *block
}

// block is shared by the threads of one simulated block.
type block struct {
	barrier *barrier
	datas   []*data.Data
}

// Data returns the execution context of the current unit.
func (f *Frame) Data() *data.Data {
	return f.data
}

// InParallel reports whether f runs inside a multi-threaded host region.
func (f *Frame) InParallel() bool {
	return f.inParallel
}

// Coords returns the SIMT coordinates of the current thread. ok is false
// on the host.
func (f *Frame) Coords() (c policy.Coords, ok bool) {
	if f.thread == nil {
		return policy.Coords{}, false
	}
	return f.thread.coords, true
}

// Lane returns the linear thread id within the block, or 0 on the host.
func (f *Frame) Lane() int {
	if f.thread == nil {
		return 0
	}
	return f.thread.lane
}

// Warp returns the bound warp width, or 0 on the host.
func (f *Frame) Warp() int {
	if f.thread == nil {
		return 0
	}
	return f.thread.warp
}

// Sync waits for every thread of the block. It does nothing on the host.
func (f *Frame) Sync() {
	if f.thread != nil {
		f.thread.block.barrier.Wait()
	}
}

// Invoke calls body index with args extracted by descs, or with the
// default argument list when descs is nil.
func (f *Frame) Invoke(index int, descs []arg.Single) {
	if descs == nil {
		descs = f.defaults
	}
	f.bodies[index](arg.Extract(descs, f.data))
}

// fork returns a copy of f running against d.
func (f *Frame) fork(d *data.Data) *Frame {
	c := *f
	c.data = d
	return &c
}

// combineInto merges every reducer param of src into the same param of dst.
func combineInto(p reduce.Protocol, dst, src *data.Data) {
	for id, param := range dst.Params() {
		if out, ok := param.(reduce.Param); ok {
			p.Combine(out, src.Param(id).(reduce.Param))
		}
	}
}

// reducers returns the reducer params of d.
func reducers(d *data.Data) []reduce.Param {
	var rs []reduce.Param
	for _, param := range d.Params() {
		if r, ok := param.(reduce.Param); ok {
			rs = append(rs, r)
		}
	}
	return rs
}
