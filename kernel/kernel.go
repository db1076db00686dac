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

// Package kernel compiles and runs a statement tree in one call.
//
//	err := kernel.Run(
//	    []stmt.Statement{
//	        stmt.For(0, policy.ParallelExec(), stmt.Lambda(0, arg.Seg(0), arg.Param(0))),
//	    },
//	    []data.Segment{data.Range(0, len(x))},
//	    []any{reduce.New[float64](reduce.Sum[float64]{}, &total)},
//	    func(a arg.Args) { arg.As[*reduce.Reducer[float64]](a, 1).Apply(x[a.Int(0)]) },
//	)
//
// Callers that run the same tree repeatedly should keep the compiled
// exec.Kernel instead.
package kernel

import (
	"github.com/ajroetker/go-loopnest/kernel/data"
	"github.com/ajroetker/go-loopnest/kernel/exec"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
)

// Run compiles stmts with exec.DefaultConfig and runs them once over
// segments and params.
func Run(stmts []stmt.Statement, segments []data.Segment, params []any, bodies ...exec.Body) error {
	return RunWith(exec.DefaultConfig(), stmts, segments, params, bodies...)
}

// RunWith is Run with an explicit configuration.
func RunWith(cfg exec.Config, stmts []stmt.Statement, segments []data.Segment, params []any, bodies ...exec.Body) error {
	k, err := exec.Compile(cfg, stmts...)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.Run(data.New(segments, params...), bodies...)
}
