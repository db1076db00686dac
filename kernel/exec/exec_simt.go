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
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-loopnest/kernel/data"
	"github.com/ajroetker/go-loopnest/kernel/policy"
	"github.com/ajroetker/go-loopnest/kernel/reduce"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
)

func registerDevice() {
	for _, sk := range []stmt.Kind{stmt.KindFor, stmt.KindForICount} {
		Register(Device, sk, policy.Seq, seqExec)
		Register(Device, sk, policy.Direct, mapped(indexerUnit, false))
		Register(Device, sk, policy.Loop, mapped(indexerUnit, true))
		Register(Device, sk, policy.WarpDirect, mapped(warpUnit, false))
		Register(Device, sk, policy.WarpLoop, mapped(warpUnit, true))
		Register(Device, sk, policy.WarpMaskedDirect, warpMasked(false))
		Register(Device, sk, policy.WarpMaskedLoop, warpMasked(true))
		Register(Device, sk, policy.ThreadMaskedDirect, threadMasked(false))
		Register(Device, sk, policy.ThreadMaskedLoop, threadMasked(true))
	}
	Register(Device, stmt.KindLambda, policy.None, lambdaExec)
	Register(Device, stmt.KindSync, policy.None, deviceSyncExec)
	Register(Device, stmt.KindReduce, policy.BlockReduce, blockReduceExec)
}

// unitFunc returns the first index a thread handles under pol and the
// number of units sharing the range.
type unitFunc func(pol policy.Policy, th *thread) (start, units int)

func indexerUnit(pol policy.Policy, th *thread) (int, int) {
	ix := pol.Indexer()
	return ix.Index(th.coords), ix.Size(th.coords)
}

func warpUnit(_ policy.Policy, th *thread) (int, int) {
	return th.coords.ThreadIdx.X % th.warp, th.warp
}

func maskUnit(pol policy.Policy, th *thread) (int, int) {
	m := pol.Mask()
	return m.MaskValue(th.coords.ThreadIdx.X), m.MaxMaskedSize()
}

// mapped builds a device loop executor. A direct mapping gives each thread
// one index and deactivates it past len. A strided mapping visits start,
// start+units, start+2*units, ...; every thread runs the same number of
// trips so that barriers in the body stay matched.
func mapped(unit unitFunc, strided bool) Builder {
	return func(s stmt.Statement, body Fn, _ Env) (Fn, error) {
		t := targetOf(s)
		pol := s.Policy()
		if !strided {
			return func(f *Frame, active bool) {
				i, _ := unit(pol, f.thread)
				t.assign(f.data, i)
				body(f, active && i < f.data.SegmentLen(t.seg))
			}, nil
		}
		return func(f *Frame, active bool) {
			start, units := unit(pol, f.thread)
			n := f.data.SegmentLen(t.seg)
			for base := 0; base < n; base += units {
				i := base + start
				t.assign(f.data, i)
				body(f, active && i < n)
			}
		}, nil
	}
}

// warpMasked is mapped(maskUnit) bound to the launch's warp: the mask may
// not select more lanes than a warp has.
func warpMasked(strided bool) Builder {
	return masked(strided, func(env Env) (int, string) { return env.Warp, "warp" })
}

// threadMasked is mapped(maskUnit) bounded by the largest block.
func threadMasked(strided bool) Builder {
	return masked(strided, func(Env) (int, string) { return MaxThreadsPerBlock, "block" })
}

func masked(strided bool, limit func(Env) (int, string)) Builder {
	build := mapped(maskUnit, strided)
	return func(s stmt.Statement, body Fn, env Env) (Fn, error) {
		m := s.Policy().Mask()
		n, unit := limit(env)
		if size := m.MaxMaskedSize(); size <= 0 || size > n {
			return nil, errors.Wrapf(ErrMaskTooWide, "%s selects %d lanes, %s has %d", m, size, unit, n)
		}
		return build(s, body, env)
	}
}

func deviceSyncExec(stmt.Statement, Fn, Env) (Fn, error) {
	return func(f *Frame, _ bool) {
		f.thread.block.barrier.Wait()
	}, nil
}

// blockReduceExec combines a reducer across the threads of a block. After a
// barrier, lane 0 folds every other lane's partial into its own in a
// shuffle-down tree and the other lanes are left at the identity. After a
// second barrier the enclosed statements run on lane 0 only.
func blockReduceExec(s stmt.Statement, body Fn, _ Env) (Fn, error) {
	id := s.(*stmt.ReduceStmt).Param
	proto := reduce.NewProtocol(reduce.Simt)
	return func(f *Frame, active bool) {
		th := f.thread
		th.block.barrier.Wait()
		if th.lane == 0 {
			others := make([]reduce.Param, 0, len(th.block.datas)-1)
			for _, d := range th.block.datas[1:] {
				others = append(others, d.Param(id).(reduce.Param))
			}
			proto.CombineAll(f.data.Param(id).(reduce.Param), others)
		}
		th.block.barrier.Wait()
		body(f, active && th.lane == 0)
	}, nil
}

// launchExec runs the enclosed statements on a simulated grid.
func launchExec(s stmt.Statement, body Fn, env Env) (Fn, error) {
	cfg := bindLaunch(s.(*stmt.LaunchStmt).Config, env.Warp)
	if err := validateLaunch(cfg); err != nil {
		return nil, err
	}
	g := &grid{
		cfg:     cfg,
		blocks:  cfg.Blocks.Normalize(),
		threads: cfg.Threads.Normalize(),
		body:    body,
	}
	return g.run, nil
}

type grid struct {
	cfg     policy.LaunchConfig
	blocks  policy.Dim3
	threads policy.Dim3
	body    Fn
}

// run executes every block, on the pool unless already inside a parallel
// region, then folds the block partials into f's context in block order.
//
// A panic in a thread breaks its block's barrier and is raised again here,
// on the launching goroutine, once the grid has drained.
func (g *grid) run(f *Frame, active bool) {
	n := g.blocks.Size()
	partials := make([]*data.Data, n)
	errs := make([]error, n)
	runBlock := func(b int) {
		partials[b], errs[b] = g.block(f, active, b)
	}
	if f.inParallel || f.pool == nil {
		for b := range n {
			runBlock(b)
		}
	} else {
		f.pool.ParallelForAtomic(n, runBlock)
	}

	proto := reduce.NewProtocol(reduce.Seq)
	for b, p := range partials {
		if errs[b] != nil {
			panic(errs[b])
		}
		combineInto(proto, f.data, p)
	}
}

// block runs one block, one goroutine per thread, and returns the combined
// partial result of its threads.
func (g *grid) block(f *Frame, active bool, b int) (*data.Data, error) {
	n := g.threads.Size()
	blk := &block{barrier: newBarrier(n), datas: make([]*data.Data, n)}
	for t := range blk.datas {
		blk.datas[t] = f.data.Replicate()
	}
	blockIdx := g.blocks.Unlinear(b)

	var eg errgroup.Group
	for t := range n {
		tf := f.fork(blk.datas[t])
		tf.thread = &thread{
			coords: policy.Coords{
				ThreadIdx: g.threads.Unlinear(t),
				BlockIdx:  blockIdx,
				BlockDim:  g.threads,
				GridDim:   g.blocks,
			},
			lane:  t,
			warp:  g.cfg.Warp(),
			block: blk,
		}
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("block %s thread %s: %v", blockIdx, tf.thread.coords.ThreadIdx, r)
					blk.barrier.Break()
				}
			}()
			g.body(tf, active)
			return nil
		})
	}
	err := eg.Wait()

	partial := f.data.Replicate()
	proto := reduce.NewProtocol(reduce.Simt)
	for id, p := range partial.Params() {
		out, ok := p.(reduce.Param)
		if !ok {
			continue
		}
		lanes := make([]reduce.Param, n)
		for t, d := range blk.datas {
			lanes[t] = d.Param(id).(reduce.Param)
		}
		proto.CombineAll(out, lanes)
	}
	return partial, err
}
