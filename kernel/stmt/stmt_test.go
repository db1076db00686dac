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

package stmt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-loopnest/kernel/arg"
	"github.com/ajroetker/go-loopnest/kernel/policy"
)

func TestDump(t *testing.T) {
	tree := []Statement{
		For(1, policy.ParallelExec(),
			ForICount(0, 2, policy.SeqExec(),
				Lambda(0, arg.SegList(0, 1), arg.Param(2)),
			),
		),
		Launch(policy.LaunchConfig{Blocks: policy.D1(2), Threads: policy.D1(32)},
			For(0, policy.GlobalXLoop, Lambda(1)),
			Sync(),
			Reduce(0, policy.BlockReduceExec()),
		),
	}
	want := `For<1, parallel>
  ForICount<0, Param<2>, seq>
    Lambda<0>(Seg<0>, Seg<1>, Param<2>)
Launch<cuda<<<(2,1,1), (32,1,1)>>> warp=32>
  For<0, loop<global_x>>
    Lambda<1>
  Sync
  Reduce<Param<0>, block_reduce>
`
	require.Equal(t, want, Dump(tree))
}

func TestWalk(t *testing.T) {
	tree := []Statement{
		For(0, policy.SeqExec(), Lambda(0), For(1, policy.SeqExec(), Lambda(1))),
		Lambda(2),
	}
	var kinds []Kind
	Walk(tree, func(s Statement) { kinds = append(kinds, s.Kind()) })
	require.Equal(t, []Kind{KindFor, KindLambda, KindFor, KindLambda, KindLambda}, kinds)
}

func TestForICountPromotesFor(t *testing.T) {
	s := ForICount(3, 1, policy.WarpLoopExec(), Lambda(0))
	require.Equal(t, KindForICount, s.Kind())
	require.Equal(t, policy.WarpLoop, s.Policy().Kind())
	require.Len(t, s.Body(), 1)
	require.Equal(t, 3, s.Arg)
}

func TestLambdaDefaultArgs(t *testing.T) {
	require.Nil(t, Lambda(0).Args)
	require.Equal(t, []arg.Single{arg.OffSet(0)}, Lambda(0, arg.OffSet(0)).Args)
}
