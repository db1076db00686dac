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

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentities(t *testing.T) {
	assert.Equal(t, 0, Sum[int]{}.Identity())
	assert.Equal(t, 1.0, Prod[float64]{}.Identity())
	assert.Equal(t, int8(127), Min[int8]{}.Identity())
	assert.Equal(t, int8(-128), Max[int8]{}.Identity())
	assert.Equal(t, uint16(math.MaxUint16), Min[uint16]{}.Identity())
	assert.Equal(t, uint16(0), Max[uint16]{}.Identity())
	assert.Equal(t, int64(math.MaxInt64), Min[int64]{}.Identity())
	assert.Equal(t, int64(math.MinInt64), Max[int64]{}.Identity())
	assert.True(t, math.IsInf(float64(Min[float32]{}.Identity()), 1))
	assert.True(t, math.IsInf(Max[float64]{}.Identity(), -1))
	assert.Equal(t, uint8(0xff), BitAnd[uint8]{}.Identity())
	assert.Equal(t, 0, BitOr[int]{}.Identity())
}

func TestProtocolAccumulatesIntoTarget(t *testing.T) {
	for _, p := range []Policy{Seq, Threads, Simt} {
		t.Run(p.String(), func(t *testing.T) {
			target := 10
			out := New[int](Sum[int]{}, &target)
			in := out.Replicate().(*Reducer[int])
			Init(p, out)
			Init(p, in)
			out.Apply(3)
			in.Apply(5)
			Combine(p, out, in)
			require.Equal(t, 8, out.Value())
			require.NoError(t, Resolve(p, out))
			require.Equal(t, 18, target)
		})
	}
}

func TestResolveOnce(t *testing.T) {
	target := 1
	r := New[int](Prod[int]{}, &target)
	r.Apply(7)
	require.NoError(t, r.Resolve())
	require.True(t, r.Resolved())
	require.ErrorIs(t, r.Resolve(), ErrAlreadyResolved)
	require.Equal(t, 7, target)
}

func TestReplicaCannotResolve(t *testing.T) {
	target := 0
	r := New[int](Sum[int]{}, &target)
	rep := r.Replicate().(*Reducer[int])
	rep.Apply(4)
	require.ErrorIs(t, rep.Resolve(), ErrReplicaResolve)
	require.Equal(t, 0, target)
	require.Same(t, r.Target(), rep.Target())
}

func TestResolveWithoutTarget(t *testing.T) {
	r := New[int](Sum[int]{}, nil)
	require.Error(t, r.Resolve())
	require.False(t, r.Resolved())
}

func TestCombineAllOrderIndependent(t *testing.T) {
	for _, p := range []Policy{Seq, Threads, Simt} {
		for _, n := range []int{0, 1, 2, 3, 7, 8, 33} {
			var target int
			out := New[int](Sum[int]{}, &target)
			ins := make([]Param, n)
			want := 0
			for i := range ins {
				rep := out.Replicate().(*Reducer[int])
				rep.Apply(i + 1)
				want += i + 1
				ins[i] = rep
			}
			NewProtocol(p).CombineAll(out, ins)
			assert.Equalf(t, want, out.Value(), "policy %s, n=%d", p, n)
			for i, in := range ins {
				assert.Equalf(t, 0, in.(*Reducer[int]).Value(), "policy %s, input %d not consumed", p, i)
			}
		}
	}
}

func TestMinMaxCombine(t *testing.T) {
	values := []float64{3, -2, 9.5, 0}
	lo, hi := -100.0, 100.0
	rmin := New[float64](Min[float64]{}, &hi)
	rmax := New[float64](Max[float64]{}, &lo)
	for _, v := range values {
		rmin.Apply(v)
		rmax.Apply(v)
	}
	require.NoError(t, rmin.Resolve())
	require.NoError(t, rmax.Resolve())
	assert.Equal(t, -2.0, hi)
	assert.Equal(t, 9.5, lo)
}

func TestThreadsProtocolConcurrentCombine(t *testing.T) {
	var target int64
	out := New[int64](Sum[int64]{}, &target)
	proto := NewProtocol(Threads)
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep := out.Replicate().(*Reducer[int64])
			rep.Apply(2)
			proto.Combine(out, rep)
		}()
	}
	wg.Wait()
	require.NoError(t, proto.Resolve(out))
	require.Equal(t, int64(128), target)
}

func TestFuncOp(t *testing.T) {
	target := ""
	r := New[string](Func[string]{
		Ident: "",
		Fn:    func(a, b string) string { return a + b },
		Label: "concat",
	}, &target)
	r.Apply("a")
	r.Apply("b")
	require.Equal(t, "concat", r.OpName())
	require.NoError(t, r.Resolve())
	require.Equal(t, "ab", target)
	require.Equal(t, "Reducer<concat>(ab)", r.String())
}
