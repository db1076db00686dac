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

// Package data holds the execution context threaded through a kernel run:
// the segment tuple, the per-dimension offsets and the parameter slots.
//
// A Data is scoped to one kernel invocation. Executors that fan work out to
// several execution units (worker chunks, simulated GPU threads) give each
// unit its own Replicate so offsets stay unit-local while reductions combine
// back through the reduce protocol.
package data

import (
	"strings"

	"github.com/samber/lo"
)

// Data is the execution context of one kernel invocation.
//
// Ids are positional: segment id i is segments[i] and its current offset is
// offsets[i]; param id p is params[p]. Ids are validated before a kernel
// runs, so accessors index directly.
type Data struct {
	segments []Segment
	offsets  []int
	params   []any
}

// Replicator is implemented by params that need a per-unit copy, such as
// reducers. Replicate returns a fresh copy in its initial state.
type Replicator interface {
	Replicate() any
}

// New returns a context over segments with the given params.
//
// Params must be pointer-like so that bodies receive the live slot:
// iteration-count slots written by ForICount are *int.
func New(segments []Segment, params ...any) *Data {
	return &Data{
		segments: segments,
		offsets:  make([]int, len(segments)),
		params:   params,
	}
}

// NumSegments returns the size of the segment tuple.
func (d *Data) NumSegments() int {
	return len(d.segments)
}

// NumParams returns the size of the param tuple.
func (d *Data) NumParams() int {
	return len(d.params)
}

// Segment returns segment id.
func (d *Data) Segment(id int) Segment {
	return d.segments[id]
}

// SegmentLen returns the length of segment id.
func (d *Data) SegmentLen(id int) int {
	return d.segments[id].Len()
}

// Offset returns the current offset of dimension id.
func (d *Data) Offset(id int) int {
	return d.offsets[id]
}

// Value returns the segment value at the current offset of dimension id.
// An offset outside [0, Len) yields 0, as it does for an empty segment.
func (d *Data) Value(id int) int {
	off := d.offsets[id]
	if off < 0 || off >= d.segments[id].Len() {
		return 0
	}
	return d.segments[id].At(off)
}

// Param returns the live param slot id.
func (d *Data) Param(id int) any {
	return d.params[id]
}

// Params returns the param tuple. The slice is shared with d.
func (d *Data) Params() []any {
	return d.params
}

// AssignOffset sets the current offset of dimension id.
func (d *Data) AssignOffset(id, offset int) {
	d.offsets[id] = offset
}

// AssignParam writes value into the *int slot id.
func (d *Data) AssignParam(id, value int) {
	*d.params[id].(*int) = value
}

// Replicate returns a copy of d for one execution unit.
//
// Segments are shared, offsets are copied, *int slots get a fresh slot with
// the current value, Replicator params are replicated and every other param
// is shared.
func (d *Data) Replicate() *Data {
	params := make([]any, len(d.params))
	for i, p := range d.params {
		switch p := p.(type) {
		case *int:
			v := *p
			params[i] = &v
		case Replicator:
			params[i] = p.Replicate()
		default:
			params[i] = p
		}
	}
	offsets := make([]int, len(d.offsets))
	copy(offsets, d.offsets)
	return &Data{segments: d.segments, offsets: offsets, params: params}
}

func (d *Data) String() string {
	segs := lo.Map(d.segments, func(s Segment, _ int) string { return s.String() })
	return "Data{segments: " + strings.Join(segs, ", ") + "}"
}
