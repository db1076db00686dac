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

package main

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ajroetker/go-loopnest/hwy"
	"github.com/ajroetker/go-loopnest/kernel"
	"github.com/ajroetker/go-loopnest/kernel/arg"
	"github.com/ajroetker/go-loopnest/kernel/data"
	"github.com/ajroetker/go-loopnest/kernel/exec"
	"github.com/ajroetker/go-loopnest/kernel/policy"
	"github.com/ajroetker/go-loopnest/kernel/reduce"
	"github.com/ajroetker/go-loopnest/kernel/reduce/exact"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
	"github.com/ajroetker/go-loopnest/kernel/tensor"
)

// ErrWrongResult is returned when a workload's output does not match its
// closed-form answer.
var ErrWrongResult = errors.New("wrong result")

// backend maps a workload's loops onto one executor family.
type backend struct {
	name string
	// loop is the policy of the outermost loop.
	loop policy.Policy
	// reduce is the policy of Reduce statements.
	reduce policy.Policy
	launch *policy.LaunchConfig
}

func parseBackend(name string, lc policy.LaunchConfig) (backend, error) {
	switch name {
	case "seq":
		return backend{name: name, loop: policy.SeqExec(), reduce: policy.SeqExec()}, nil
	case "simd":
		return backend{name: name, loop: policy.SimdExec(0), reduce: policy.SeqExec()}, nil
	case "parallel":
		return backend{name: name, loop: policy.ParallelExec(), reduce: policy.SeqExec()}, nil
	case "simt":
		return backend{name: name, loop: policy.GlobalXLoop, reduce: policy.BlockReduceExec(), launch: &lc}, nil
	}
	return backend{}, errors.Errorf("unknown backend %q, want seq, simd, parallel or simt", name)
}

// wrap places stmts inside a Launch on the simt backend.
func (b backend) wrap(stmts ...stmt.Statement) []stmt.Statement {
	if b.launch == nil {
		return stmts
	}
	return []stmt.Statement{stmt.Launch(*b.launch, stmts...)}
}

// job is one workload run.
type job struct {
	cfg     exec.Config
	backend backend
	n       int
}

func (j job) run(stmts []stmt.Statement, segments []data.Segment, params []any, bodies ...exec.Body) error {
	return kernel.RunWith(j.cfg, j.backend.wrap(stmts...), segments, params, bodies...)
}

type workload struct {
	help string
	run  func(j job) (string, error)
}

var workloads = map[string]workload{
	"sum":      {"exact decimal sum of i/100 over [0, n)", runSum},
	"daxpy":    {"y = 2x + y, checked with a vector sum", runDaxpy},
	"matvec":   {"dense matrix-vector product, rows across units", runMatvec},
	"coverage": {"every index visited exactly once, counted with ForICount", runCoverage},
	"fma":      {"contracted a*x + y evaluated tile by tile", runFMA},
}

func workloadNames() []string {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runSum(j job) (string, error) {
	total := decimal.Zero
	err := j.run(
		[]stmt.Statement{
			stmt.For(0, j.backend.loop, stmt.Lambda(0, arg.Seg(0), arg.Param(0))),
			stmt.Reduce(0, j.backend.reduce),
		},
		[]data.Segment{data.Range(0, j.n)},
		[]any{exact.NewSum(&total)},
		func(a arg.Args) {
			arg.As[*reduce.Reducer[decimal.Decimal]](a, 1).Apply(decimal.New(int64(a.Int(0)), -2))
		},
	)
	if err != nil {
		return "", err
	}
	n := int64(j.n)
	if want := decimal.New(n*(n-1)/2, -2); !total.Equal(want) {
		return "", errors.Wrapf(ErrWrongResult, "sum is %s, want %s", total, want)
	}
	return total.String(), nil
}

func runDaxpy(j job) (string, error) {
	const a = 2.0
	x := make([]float64, j.n)
	y := make([]float64, j.n)
	for i := range x {
		x[i] = float64(i)
		y[i] = 1
	}
	err := j.run(
		[]stmt.Statement{stmt.For(0, j.backend.loop, stmt.Lambda(0, arg.OffSet(0)))},
		[]data.Segment{data.Range(0, j.n)},
		nil,
		func(args arg.Args) {
			i := args.Int(0)
			y[i] = a*x[i] + y[i]
		},
	)
	if err != nil {
		return "", err
	}
	sum, err := tensor.Sum(tensor.Ref("y", y), j.n)
	if err != nil {
		return "", err
	}
	if want := float64(j.n) * float64(j.n); sum != want {
		return "", errors.Wrapf(ErrWrongResult, "checksum is %g, want %g", sum, want)
	}
	return fmt.Sprintf("checksum=%g", sum), nil
}

func runMatvec(j job) (string, error) {
	const cols = 64
	rows := max(1, j.n/cols)
	m := make([]float64, rows*cols)
	for i := range m {
		m[i] = float64(i % 7)
	}
	x := make([]float64, cols)
	for c := range x {
		x[c] = 1
	}
	y := make([]float64, rows)
	var total float64
	err := j.run(
		[]stmt.Statement{
			stmt.For(1, j.backend.loop,
				stmt.For(0, policy.SeqExec(),
					stmt.Lambda(0, arg.SegList(1, 0), arg.Param(0)),
				),
			),
			stmt.Reduce(0, j.backend.reduce),
		},
		[]data.Segment{data.Range(0, cols), data.Range(0, rows)},
		[]any{reduce.New[float64](reduce.Sum[float64]{}, &total)},
		func(a arg.Args) {
			r, c := a.Int(0), a.Int(1)
			p := m[r*cols+c] * x[c]
			y[r] += p
			arg.As[*reduce.Reducer[float64]](a, 2).Apply(p)
		},
	)
	if err != nil {
		return "", err
	}
	want := 0.0
	for _, v := range m {
		want += v
	}
	if total != want {
		return "", errors.Wrapf(ErrWrongResult, "sum of y is %g, want %g", total, want)
	}
	return fmt.Sprintf("rows=%d y[0]=%g sum=%g", rows, y[0], total), nil
}

func runCoverage(j job) (string, error) {
	visits := make([]atomic.Int32, j.n)
	count := 0
	err := j.run(
		[]stmt.Statement{stmt.ForICount(0, 0, j.backend.loop, stmt.Lambda(0, arg.Param(0)))},
		[]data.Segment{data.Range(0, j.n)},
		[]any{&count},
		func(a arg.Args) {
			visits[*arg.As[*int](a, 0)].Add(1)
		},
	)
	if err != nil {
		return "", err
	}
	for i := range visits {
		if v := visits[i].Load(); v != 1 {
			return "", errors.Wrapf(ErrWrongResult, "index %d visited %d times", i, v)
		}
	}
	return fmt.Sprintf("%d indices, each visited once", j.n), nil
}

func runFMA(j job) (string, error) {
	const a = 1.5
	x := make([]float64, j.n)
	y := make([]float64, j.n)
	for i := range x {
		x[i] = float64(i) / 2
		y[i] = 1
	}
	out := make([]float64, j.n)
	e := tensor.Contract(tensor.Add(tensor.Mul(tensor.Scalar(a), tensor.Ref("x", x)), tensor.Ref("y", y)))
	lanes := hwy.MaxLanes[float64]()
	err := j.run(
		[]stmt.Statement{stmt.For(0, j.backend.loop, stmt.Lambda(0, arg.Seg(0)))},
		[]data.Segment{data.StridedRange(0, j.n, lanes)},
		nil,
		func(args arg.Args) {
			tensor.AssignTile(out, e, tensor.TileAt[float64](args.Int(0), j.n))
		},
	)
	if err != nil {
		return "", err
	}
	sum, err := tensor.Sum(tensor.Ref("out", out), j.n)
	if err != nil {
		return "", err
	}
	n := float64(j.n)
	if want := a*n*(n-1)/4 + n; sum != want {
		return "", errors.Wrapf(ErrWrongResult, "checksum is %g, want %g", sum, want)
	}
	return fmt.Sprintf("%s fused=%t checksum=%g", e, hwy.HasFMA(), sum), nil
}
