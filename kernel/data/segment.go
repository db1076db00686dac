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

package data

import "fmt"

// Segment is an ordered index range bound to one loop dimension.
//
// Offsets into a segment run over [0, Len()); At maps an offset to the
// index value the loop body sees.
type Segment interface {
	Len() int
	At(offset int) int
	String() string
}

// RangeSegment is the contiguous range [Begin, End).
type RangeSegment struct {
	Begin, End int
}

// Range returns the contiguous segment [begin, end).
func Range(begin, end int) RangeSegment {
	return RangeSegment{Begin: begin, End: end}
}

// Len returns End-Begin, or 0 for an empty or inverted range.
func (r RangeSegment) Len() int {
	return max(0, r.End-r.Begin)
}

// At returns Begin+offset.
func (r RangeSegment) At(offset int) int {
	return r.Begin + offset
}

func (r RangeSegment) String() string {
	return fmt.Sprintf("[%d, %d)", r.Begin, r.End)
}

// StridedSegment visits Begin, Begin+Stride, ... while below End
// (above End for a negative stride).
type StridedSegment struct {
	Begin, End, Stride int
}

// StridedRange returns a strided segment. A zero stride is treated as 1.
func StridedRange(begin, end, stride int) StridedSegment {
	if stride == 0 {
		stride = 1
	}
	return StridedSegment{Begin: begin, End: end, Stride: stride}
}

// Len returns the number of indices visited.
func (s StridedSegment) Len() int {
	if s.Stride > 0 {
		if s.End <= s.Begin {
			return 0
		}
		return (s.End - s.Begin + s.Stride - 1) / s.Stride
	}
	if s.Begin <= s.End {
		return 0
	}
	return (s.Begin - s.End - s.Stride - 1) / -s.Stride
}

// At returns Begin+offset*Stride.
func (s StridedSegment) At(offset int) int {
	return s.Begin + offset*s.Stride
}

func (s StridedSegment) String() string {
	return fmt.Sprintf("[%d, %d) step %d", s.Begin, s.End, s.Stride)
}

// ListSegment is an explicit list of indices.
type ListSegment []int

// List returns a segment visiting values in order.
func List(values ...int) ListSegment {
	return ListSegment(values)
}

// Len returns the number of listed indices.
func (l ListSegment) Len() int {
	return len(l)
}

// At returns the listed index at offset.
func (l ListSegment) At(offset int) int {
	return l[offset]
}

func (l ListSegment) String() string {
	return fmt.Sprintf("list%v", []int(l))
}
