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

import (
	"math"
	"testing"
)

func TestLoad(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	v := Load(data)

	if v.NumLanes() != MaxLanes[float32]() {
		t.Fatalf("Load: got %d lanes, want %d", v.NumLanes(), MaxLanes[float32]())
	}
	for i := 0; i < v.NumLanes(); i++ {
		if v.data[i] != data[i] {
			t.Errorf("Load: lane %d: got %v, want %v", i, v.data[i], data[i])
		}
	}
}

func TestLoadShortSource(t *testing.T) {
	v := Load([]float64{7})
	if v.NumLanes() != MaxLanes[float64]() {
		t.Fatalf("Load: got %d lanes, want %d", v.NumLanes(), MaxLanes[float64]())
	}
	if v.data[0] != 7 {
		t.Errorf("Load: lane 0: got %v, want 7", v.data[0])
	}
	for i := 1; i < v.NumLanes(); i++ {
		if v.data[i] != 0 {
			t.Errorf("Load: lane %d: got %v, want 0", i, v.data[i])
		}
	}
}

func TestSetZero(t *testing.T) {
	s := Set[int32](42)
	z := Zero[int32]()
	for i := 0; i < s.NumLanes(); i++ {
		if s.data[i] != 42 {
			t.Errorf("Set: lane %d: got %v, want 42", i, s.data[i])
		}
		if z.data[i] != 0 {
			t.Errorf("Zero: lane %d: got %v, want 0", i, z.data[i])
		}
	}
}

func TestArithmetic(t *testing.T) {
	a := Set[float32](10)
	b := Set[float32](4)
	tests := []struct {
		name string
		got  Vec[float32]
		want float32
	}{
		{"Add", Add(a, b), 14},
		{"Sub", Sub(a, b), 6},
		{"Mul", Mul(a, b), 40},
		{"Min", Min(a, b), 4},
		{"Max", Max(a, b), 10},
	}
	for _, tt := range tests {
		for i := 0; i < tt.got.NumLanes(); i++ {
			if tt.got.data[i] != tt.want {
				t.Errorf("%s: lane %d: got %v, want %v", tt.name, i, tt.got.data[i], tt.want)
			}
		}
	}
}

func TestFMA(t *testing.T) {
	a := Set[float64](2)
	b := Set[float64](3)
	c := Set[float64](1)
	result := FMA(a, b, c)
	for i := 0; i < result.NumLanes(); i++ {
		if result.data[i] != 7 {
			t.Errorf("FMA: lane %d: got %v, want 7", i, result.data[i])
		}
	}
}

func TestFMASingleRounding(t *testing.T) {
	// x*x - 1 for x = 1+2^-30 loses the 2^-60 term when rounded twice.
	x := 1 + math.Ldexp(1, -30)
	a := Set(x)
	c := Set(-1.0)
	fused := ReduceMax(FMA(a, a, c))
	unfused := ReduceMax(Add(Mul(a, a), c))
	want := math.FMA(x, x, -1)
	if fused != want {
		t.Errorf("FMA: got %v, want %v", fused, want)
	}
	if fused == unfused {
		t.Errorf("FMA and Mul+Add agree (%v); expected different rounding", fused)
	}
}

func TestReductions(t *testing.T) {
	n := MaxLanes[int64]()
	data := make([]int64, n)
	var wantSum int64
	for i := range data {
		data[i] = int64(i*3 - 2)
		wantSum += data[i]
	}
	v := Load(data)
	if got := ReduceSum(v); got != wantSum {
		t.Errorf("ReduceSum: got %d, want %d", got, wantSum)
	}
	if got := ReduceMin(v); got != -2 {
		t.Errorf("ReduceMin: got %d, want -2", got)
	}
	if got, want := ReduceMax(v), int64((n-1)*3-2); got != want {
		t.Errorf("ReduceMax: got %d, want %d", got, want)
	}
}

func TestMaskLoadStore(t *testing.T) {
	lanes := MaxLanes[float32]()
	src := make([]float32, lanes)
	for i := range src {
		src[i] = float32(i + 1)
	}
	mask := TailMask[float32](2)
	v := MaskLoad(mask, src)
	for i := 0; i < lanes; i++ {
		want := float32(0)
		if i < 2 {
			want = src[i]
		}
		if v.data[i] != want {
			t.Errorf("MaskLoad: lane %d: got %v, want %v", i, v.data[i], want)
		}
	}

	dst := make([]float32, lanes)
	MaskStore(mask, Set[float32](9), dst)
	for i := range dst {
		want := float32(0)
		if i < 2 {
			want = 9
		}
		if dst[i] != want {
			t.Errorf("MaskStore: lane %d: got %v, want %v", i, dst[i], want)
		}
	}
}

func TestMaskQueries(t *testing.T) {
	lanes := MaxLanes[int32]()
	full := TailMask[int32](lanes)
	none := TailMask[int32](0)
	if !full.AllTrue() || !full.AnyTrue() {
		t.Error("full mask: expected AllTrue and AnyTrue")
	}
	if none.AnyTrue() {
		t.Error("empty mask: expected AnyTrue false")
	}
	if got := TailMask[int32](3).CountTrue(); got != min(3, lanes) {
		t.Errorf("CountTrue: got %d, want %d", got, min(3, lanes))
	}
	if full.GetBit(-1) || full.GetBit(lanes) {
		t.Error("GetBit out of range must be false")
	}
}

func TestProcessLanes(t *testing.T) {
	tests := []struct {
		size, lanes   int
		full          []int
		tailOffset    int
		tailCount     int
		expectTailRun bool
	}{
		{size: 10, lanes: 4, full: []int{0, 4}, tailOffset: 8, tailCount: 2, expectTailRun: true},
		{size: 8, lanes: 4, full: []int{0, 4}},
		{size: 3, lanes: 4, tailOffset: 0, tailCount: 3, expectTailRun: true},
		{size: 0, lanes: 4},
	}
	for _, tt := range tests {
		var full []int
		tailRun := false
		ProcessLanes(tt.size, tt.lanes,
			func(offset int) { full = append(full, offset) },
			func(offset, count int) {
				tailRun = true
				if offset != tt.tailOffset || count != tt.tailCount {
					t.Errorf("size %d: tail (%d, %d), want (%d, %d)", tt.size, offset, count, tt.tailOffset, tt.tailCount)
				}
			})
		if len(full) != len(tt.full) {
			t.Errorf("size %d: full offsets %v, want %v", tt.size, full, tt.full)
		}
		if tailRun != tt.expectTailRun {
			t.Errorf("size %d: tail run = %v, want %v", tt.size, tailRun, tt.expectTailRun)
		}
	}
}

func TestAlignedSize(t *testing.T) {
	lanes := MaxLanes[float32]()
	if got := AlignedSize[float32](1); got != lanes {
		t.Errorf("AlignedSize(1) = %d, want %d", got, lanes)
	}
	if got := AlignedSize[float32](lanes); got != lanes {
		t.Errorf("AlignedSize(%d) = %d, want %d", lanes, got, lanes)
	}
}
