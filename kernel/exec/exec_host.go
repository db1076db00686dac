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
	"github.com/ajroetker/go-loopnest/hwy"
	"github.com/ajroetker/go-loopnest/kernel/data"
	"github.com/ajroetker/go-loopnest/kernel/policy"
	"github.com/ajroetker/go-loopnest/kernel/reduce"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
)

func registerHost() {
	for _, sk := range []stmt.Kind{stmt.KindFor, stmt.KindForICount} {
		Register(Host, sk, policy.Seq, seqExec)
		Register(Host, sk, policy.Simd, simdExec)
		Register(Host, sk, policy.Parallel, parallelExec)
	}
	Register(Host, stmt.KindLambda, policy.None, lambdaExec)
	Register(Host, stmt.KindSync, policy.None, hostSyncExec)
	Register(Host, stmt.KindReduce, policy.Seq, hostReduceExec)
	Register(Host, stmt.KindLaunch, policy.None, launchExec)
}

// loopTarget is what a loop statement writes on every iteration.
type loopTarget struct {
	seg     int
	param   int
	counted bool
}

func targetOf(s stmt.Statement) loopTarget {
	switch s := s.(type) {
	case *stmt.ForICountStmt:
		return loopTarget{seg: s.Arg, param: s.Param, counted: true}
	case *stmt.ForStmt:
		return loopTarget{seg: s.Arg}
	}
	panic("exec: not a loop statement: " + s.String())
}

func (t loopTarget) assign(d *data.Data, i int) {
	d.AssignOffset(t.seg, i)
	if t.counted {
		d.AssignParam(t.param, i)
	}
}

// seqExec runs [0, len) in order on the current unit.
func seqExec(s stmt.Statement, body Fn, _ Env) (Fn, error) {
	t := targetOf(s)
	return func(f *Frame, active bool) {
		n := f.data.SegmentLen(t.seg)
		for i := 0; i < n; i++ {
			t.assign(f.data, i)
			body(f, active)
		}
	}, nil
}

// simdExec runs [0, len) in groups of lanes. The last group is padded to a
// full register and its lanes past len run with active false. Like seqExec
// it leaves the offset at len-1.
func simdExec(s stmt.Statement, body Fn, _ Env) (Fn, error) {
	t := targetOf(s)
	lanes := s.Policy().Width()
	if lanes == 0 {
		lanes = max(1, hwy.CurrentWidth()/8)
	}
	return func(f *Frame, active bool) {
		group := func(base, count int) {
			for lane := 0; lane < lanes; lane++ {
				t.assign(f.data, base+lane)
				body(f, active && lane < count)
			}
		}
		n := f.data.SegmentLen(t.seg)
		hwy.ProcessLanes(n, lanes,
			func(base int) { group(base, lanes) },
			group)
		if n > 0 {
			t.assign(f.data, n-1)
		}
	}, nil
}

// parallelExec splits [0, len) into contiguous chunks on the worker pool.
// Each chunk runs against its own replica of the context; its reducers
// combine into the enclosing context as the chunk finishes. Inside a
// parallel region it runs like seqExec.
func parallelExec(s stmt.Statement, body Fn, env Env) (Fn, error) {
	t := targetOf(s)
	seq, _ := seqExec(s, body, env)
	return func(f *Frame, active bool) {
		if f.inParallel || f.pool == nil {
			seq(f, active)
			return
		}
		n := f.data.SegmentLen(t.seg)
		chunks := f.pool.Split(n)
		proto := reduce.NewProtocol(reduce.Threads)
		f.pool.ParallelForAtomic(len(chunks), func(c int) {
			local := f.fork(f.data.Replicate())
			local.inParallel = true
			for i := chunks[c].Start; i < chunks[c].End; i++ {
				t.assign(local.data, i)
				body(local, active)
			}
			combineInto(proto, f.data, local.data)
		})
		if n > 0 {
			t.assign(f.data, n-1)
		}
	}, nil
}

// lambdaExec invokes a body when the unit is active.
func lambdaExec(s stmt.Statement, _ Fn, _ Env) (Fn, error) {
	l := s.(*stmt.LambdaStmt)
	return func(f *Frame, active bool) {
		if active {
			f.Invoke(l.Index, l.Args)
		}
	}, nil
}

func hostSyncExec(stmt.Statement, Fn, Env) (Fn, error) {
	return func(*Frame, bool) {}, nil
}

// hostReduceExec runs the enclosed statements. A host unit holds its whole
// partial result, so there is nothing to combine across.
func hostReduceExec(_ stmt.Statement, body Fn, _ Env) (Fn, error) {
	return body, nil
}
