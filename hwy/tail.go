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

package hwy

// FirstN creates a mask of width lanes with the first count lanes active.
// count is clamped to [0, width].
func FirstN(width, count int) []bool {
	count = max(0, min(count, width))
	bits := make([]bool, width)
	for i := range count {
		bits[i] = true
	}
	return bits
}

// TailMask creates a mask with the first count lanes of a T register active.
// This is used for the remainder of an array whose size is not a multiple of
// the vector width.
//
// Example:
//
//	remaining := len(data) % hwy.MaxLanes[float32]()
//	if remaining > 0 {
//	    mask := hwy.TailMask[float32](remaining)
//	    v := hwy.MaskLoad(mask, data[len(data)-remaining:])
//	    // ... process tail
//	    hwy.MaskStore(mask, result, output[len(output)-remaining:])
//	}
func TailMask[T Lanes](count int) Mask[T] {
	return Mask[T]{bits: FirstN(MaxLanes[T](), count)}
}

// ProcessWithTail calls fullFn(offset) for every full register of a size
// element array and tailFn(offset, count) once for the remainder, if any.
func ProcessWithTail[T Lanes](size int, fullFn func(offset int), tailFn func(offset, count int)) {
	ProcessLanes(size, MaxLanes[T](), fullFn, tailFn)
}

// ProcessLanes is ProcessWithTail for an explicit lane count. It is the
// chunking used by loop executors, which are not tied to an element type.
func ProcessLanes(size, lanes int, fullFn func(offset int), tailFn func(offset, count int)) {
	if size <= 0 || lanes <= 0 {
		return
	}
	fullVectors := size / lanes
	for i := range fullVectors {
		fullFn(i * lanes)
	}
	if remaining := size % lanes; remaining > 0 {
		tailFn(fullVectors*lanes, remaining)
	}
}

// AlignedSize rounds up size to the next multiple of vector width.
func AlignedSize[T Lanes](size int) int {
	maxLanes := MaxLanes[T]()
	if maxLanes == 0 {
		return size
	}
	return ((size + maxLanes - 1) / maxLanes) * maxLanes
}
