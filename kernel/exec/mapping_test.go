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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-loopnest/kernel/data"
	"github.com/ajroetker/go-loopnest/kernel/policy"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
)

// visits runs the device For executor of pol once per unit, serially, and
// returns the active indices each unit saw.
func visits(t *testing.T, pol policy.Policy, n, units, warp int) [][]int {
	t.Helper()
	b, ok := Lookup(Device, stmt.KindFor, pol.Kind())
	require.True(t, ok, "no device executor for %s", pol)

	seen := make([][]int, units)
	cur := 0
	body := func(f *Frame, active bool) {
		if active {
			seen[cur] = append(seen[cur], f.Data().Offset(0))
		}
	}
	fn, err := b(stmt.For(0, pol), body, Env{Family: Device, Warp: warp})
	require.NoError(t, err)

	d := data.New([]data.Segment{data.Range(0, n)})
	for u := 0; u < units; u++ {
		cur = u
		f := &Frame{data: d, thread: &thread{
			coords: policy.Coords{
				ThreadIdx: policy.D1(u),
				BlockIdx:  policy.D1(0),
				BlockDim:  policy.D1(units),
				GridDim:   policy.D1(1),
			},
			lane: u,
			warp: warp,
		}}
		fn(f, true)
	}
	return seen
}

func TestStrideScenario(t *testing.T) {
	got := visits(t, policy.ThreadXLoop, 10, 4, 32)
	require.Equal(t, [][]int{{0, 4, 8}, {1, 5, 9}, {2, 6}, {3, 7}}, got)
}

func TestStridedCoverage(t *testing.T) {
	for _, pol := range []policy.Policy{policy.ThreadXLoop, policy.WarpLoopExec()} {
		for units := 1; units <= 9; units++ {
			for n := 0; n <= 23; n++ {
				warp := units
				got := visits(t, pol, n, units, warp)
				count := make([]int, n)
				for _, unit := range got {
					for _, i := range unit {
						count[i]++
					}
				}
				for i, c := range count {
					require.Equalf(t, 1, c, "%s units=%d n=%d: index %d visited %d times", pol, units, n, i, c)
				}
			}
		}
	}
}

func TestDirectBoundaryMasking(t *testing.T) {
	for _, n := range []int{0, 1, 5, 8, 12} {
		got := visits(t, policy.ThreadXDirect, n, 8, 32)
		for u, unit := range got {
			if u < n {
				require.Equal(t, []int{u}, unit, "n=%d unit=%d", n, u)
			} else {
				require.Empty(t, unit, "n=%d unit=%d", n, u)
			}
		}
	}
}

func TestMaskedLaneTransparency(t *testing.T) {
	mask := policy.BitMask{Width: 2, Shift: 3}
	const units = 64
	const n = 3
	masked := visits(t, policy.ThreadMaskedDirectExec(mask), n, units, 64)
	warpMasked := visits(t, policy.WarpMaskedDirectExec(mask), n, units, 64)
	for u := 0; u < units; u++ {
		var want []int
		if sub := mask.MaskValue(u); sub < n {
			want = []int{sub}
		}
		require.Equal(t, want, masked[u], "unit %d", u)
		require.Equal(t, want, warpMasked[u], "unit %d", u)
	}
}

func TestMaskedLoopCoverage(t *testing.T) {
	mask := policy.BitMask{Width: 3}
	got := visits(t, policy.WarpMaskedLoopExec(mask), 20, 8, 32)
	require.Equal(t, []int{0, 8, 16}, got[0])
	require.Equal(t, []int{3, 11, 19}, got[3])
	require.Equal(t, []int{7, 15}, got[7])
}

func TestWarpDirectUsesLaneWithinWarp(t *testing.T) {
	got := visits(t, policy.WarpDirectExec(), 3, 8, 4)
	require.Equal(t, [][]int{{0}, {1}, {2}, nil, {0}, {1}, {2}, nil}, got)
}

func TestBarrier(t *testing.T) {
	const n = 16
	b := newBarrier(n)
	phase := make([]int, n)
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			for round := 1; round <= 3; round++ {
				phase[i] = round
				b.Wait()
				for j := 0; j < n; j++ {
					if phase[j] < round {
						t.Errorf("thread %d saw thread %d at phase %d in round %d", i, j, phase[j], round)
					}
				}
				b.Wait()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

func TestBarrierBreak(t *testing.T) {
	b := newBarrier(3)
	released := make(chan struct{})
	go func() {
		b.Wait()
		close(released)
	}()
	b.Break()
	<-released
	b.Wait()
}
