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

package tensor

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-loopnest/hwy"
)

func withFused(t *testing.T, on bool) {
	t.Helper()
	prev := fused
	fused = func() bool { return on }
	t.Cleanup(func() { fused = prev })
}

func TestContractShape(t *testing.T) {
	a := Ref("a", []float64{1})
	b := Ref("b", []float64{1})
	c := Ref("c", []float64{1})
	d := Ref("d", []float64{1})
	x := Ref("x", []float64{1})
	tests := []struct {
		expr Expr[float64]
		want string
	}{
		{Add(Mul(a, x), b), "fma(a, x, b)"},
		{Add(b, Mul(a, x)), "fma(a, x, b)"},
		{Add(Mul(a, b), Add(Mul(c, d), x)), "fma(a, b, fma(c, d, x))"},
		{Mul(Add(Mul(a, b), c), d), "(fma(a, b, c) * d)"},
		{Sub(Mul(a, x), b), "((a * x) - b)"},
		{Add(a, b), "(a + b)"},
		{Add(Mul(Scalar(2.0), x), Scalar(0.5)), "fma(2, x, 0.5)"},
		{a, "a"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Contract(tt.expr).String())
	}
	require.Equal(t, "((a * x) + b)", Add(Mul(a, x), b).String())
}

func TestContractIdempotent(t *testing.T) {
	a := Ref("a", []float32{1})
	b := Ref("b", []float32{1})
	e := Contract(Add(Mul(a, b), Add(Mul(b, a), a)))
	require.Equal(t, e.String(), Contract(e).String())
}

func TestFusedMatchesUnfused(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const n = 103
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = rng.Float64()*4 - 2
		y[i] = rng.Float64()*4 - 2
	}
	e := Contract(Add(Mul(Scalar(1.5), Ref("x", x)), Ref("y", y)))

	run := func(on bool) []float64 {
		withFused(t, on)
		out := make([]float64, n)
		require.NoError(t, Assign(out, e))
		return out
	}
	fusedOut := run(true)
	plainOut := run(false)
	for i := range x {
		want := 1.5*x[i] + y[i]
		require.InDelta(t, want, fusedOut[i], 1e-12, "fused lane %d", i)
		require.InDelta(t, want, plainOut[i], 1e-12, "unfused lane %d", i)
	}
}

func TestFusedRoundsOnce(t *testing.T) {
	x := 1 + math.Ldexp(1, -30)
	e := Contract(Add(Mul(Ref("x", []float64{x}), Ref("x", []float64{x})), Scalar(-1.0)))
	out := make([]float64, 1)

	withFused(t, true)
	require.NoError(t, Assign(out, e))
	require.Equal(t, math.Ldexp(1, -29)+math.Ldexp(1, -60), out[0])

	withFused(t, false)
	require.NoError(t, Assign(out, e))
	require.Equal(t, math.Ldexp(1, -29), out[0])
}

type counting struct {
	Expr[float32]
	evals int
}

func (c *counting) Eval(t Tile) hwy.Vec[float32] {
	c.evals++
	return c.Expr.Eval(t)
}

func TestFusedEvaluatesOperandsOnce(t *testing.T) {
	const n = 37
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	l := &counting{Expr: Ref("l", data)}
	r := &counting{Expr: Scalar[float32](2)}
	a := &counting{Expr: Ref("a", data)}
	e := Contract(Add(Mul[float32](l, r), a))
	require.Equal(t, "fma(l, 2, a)", e.String())

	out := make([]float32, n)
	require.NoError(t, Assign(out, e))
	lanes := hwy.MaxLanes[float32]()
	tiles := (n + lanes - 1) / lanes
	require.Equal(t, tiles, l.evals)
	require.Equal(t, tiles, r.evals)
	require.Equal(t, tiles, a.evals)
	for i, v := range out {
		require.Equal(t, float32(3*i), v)
	}
}

func TestAssignTail(t *testing.T) {
	for n := 0; n <= 3*hwy.MaxLanes[float32]()+1; n++ {
		src := make([]float32, n)
		for i := range src {
			src[i] = float32(i)
		}
		dst := make([]float32, n+1)
		dst[n] = -1
		require.NoError(t, Assign(dst[:n], Sub(Ref("s", src), Scalar[float32](1))))
		for i := 0; i < n; i++ {
			require.Equal(t, float32(i-1), dst[i], "n=%d i=%d", n, i)
		}
		require.Equal(t, float32(-1), dst[n], "n=%d wrote past the destination", n)
	}
}

func TestAssignShape(t *testing.T) {
	err := Assign(make([]float64, 5), Add(Ref("x", make([]float64, 4)), Scalar(1.0)))
	require.ErrorIs(t, err, ErrShape)
	require.NoError(t, Assign(make([]float64, 5), Scalar(1.0)))
}

func TestSum(t *testing.T) {
	const n = 29
	x := make([]float64, n)
	y := make([]float64, n)
	want := 0.0
	for i := range x {
		x[i] = float64(i)
		y[i] = 2
		want += 2 * float64(i)
	}
	got, err := Sum(Mul(Ref("x", x), Ref("y", y)), n)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = Sum(Ref("x", x), n+1)
	require.ErrorIs(t, err, ErrShape)
}

func TestAssignTileByTile(t *testing.T) {
	lanes := hwy.MaxLanes[float64]()
	n := 2*lanes + 3
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	e := Contract(Add(Mul(Ref("x", x), Scalar(2.0)), Scalar(1.0)))
	out := make([]float64, n)
	for off := n - 1 - (n-1)%lanes; off >= 0; off -= lanes {
		tile := TileAt[float64](off, n)
		require.Equal(t, min(lanes, n-off), tile.Count)
		AssignTile(out, e, tile)
	}
	for i, v := range out {
		require.Equal(t, float64(2*i+1), v)
	}
}
