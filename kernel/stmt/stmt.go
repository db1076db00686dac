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

// Package stmt defines the statement nodes a kernel is declared with.
//
// Statements are immutable descriptions: a loop dimension or param id, a
// policy and the enclosed statements. They hold no run state; executors
// compiled from them do.
//
//	kern := []stmt.Statement{
//	    stmt.For(1, policy.ParallelExec(),
//	        stmt.For(0, policy.SeqExec(),
//	            stmt.Lambda(0, arg.SegList(0, 1), arg.Param(0)),
//	        ),
//	    ),
//	}
package stmt

import (
	"fmt"
	"strings"

	"github.com/ajroetker/go-loopnest/kernel/arg"
	"github.com/ajroetker/go-loopnest/kernel/policy"
)

// Kind is the tag of a statement node.
type Kind int

const (
	// KindFor loops over a segment.
	KindFor Kind = iota
	// KindForICount loops over a segment and records the index in a param.
	KindForICount
	// KindLambda invokes a kernel body.
	KindLambda
	// KindReduce combines a reduction param across execution units.
	KindReduce
	// KindSync is a block-wide barrier.
	KindSync
	// KindLaunch runs its body on the simulated SIMT grid.
	KindLaunch
)

func (k Kind) String() string {
	switch k {
	case KindFor:
		return "For"
	case KindForICount:
		return "ForICount"
	case KindLambda:
		return "Lambda"
	case KindReduce:
		return "Reduce"
	case KindSync:
		return "Sync"
	case KindLaunch:
		return "Launch"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Statement is one node of a kernel's statement tree.
type Statement interface {
	Kind() Kind
	Policy() policy.Policy
	// Body returns the enclosed statements.
	Body() []Statement
	String() string
}

// ForStmt loops over segment Arg.
type ForStmt struct {
	Arg   int
	Pol   policy.Policy
	Stmts []Statement
}

// For loops over segment arg with pol, assigning each index to the
// dimension's offset before running body.
func For(arg int, pol policy.Policy, body ...Statement) *ForStmt {
	return &ForStmt{Arg: arg, Pol: pol, Stmts: body}
}

// Kind returns KindFor.
func (s *ForStmt) Kind() Kind { return KindFor }

// Policy returns the loop policy.
func (s *ForStmt) Policy() policy.Policy { return s.Pol }

// Body returns the enclosed statements.
func (s *ForStmt) Body() []Statement { return s.Stmts }

func (s *ForStmt) String() string {
	return fmt.Sprintf("For<%d, %s>", s.Arg, s.Pol)
}

// ForICountStmt is a ForStmt that also writes the index to param Param.
type ForICountStmt struct {
	ForStmt
	Param int
}

// ForICount is For that also writes each index to the *int param slot.
func ForICount(arg, param int, pol policy.Policy, body ...Statement) *ForICountStmt {
	return &ForICountStmt{ForStmt: ForStmt{Arg: arg, Pol: pol, Stmts: body}, Param: param}
}

// Kind returns KindForICount.
func (s *ForICountStmt) Kind() Kind { return KindForICount }

func (s *ForICountStmt) String() string {
	return fmt.Sprintf("ForICount<%d, Param<%d>, %s>", s.Arg, s.Param, s.Pol)
}

// LambdaStmt invokes body Index.
type LambdaStmt struct {
	Index int
	// Args is nil when the body takes the default argument list.
	Args []arg.Single
}

// Lambda invokes kernel body index with the arguments described by args.
// Without args the body receives every segment value followed by every
// param.
func Lambda(index int, args ...arg.Descriptor) *LambdaStmt {
	var descs []arg.Single
	if len(args) > 0 {
		descs = arg.Normalize(args...)
	}
	return &LambdaStmt{Index: index, Args: descs}
}

// Kind returns KindLambda.
func (s *LambdaStmt) Kind() Kind { return KindLambda }

// Policy returns policy.NoPolicy().
func (s *LambdaStmt) Policy() policy.Policy { return policy.NoPolicy() }

// Body returns nil.
func (s *LambdaStmt) Body() []Statement { return nil }

func (s *LambdaStmt) String() string {
	if s.Args == nil {
		return fmt.Sprintf("Lambda<%d>", s.Index)
	}
	return fmt.Sprintf("Lambda<%d>(%s)", s.Index, arg.Format(s.Args))
}

// ReduceStmt combines reducer param Param across execution units.
type ReduceStmt struct {
	Param int
	Pol   policy.Policy
	Stmts []Statement
}

// Reduce combines the reducer in param across the units of the level
// selected by pol, then runs body on the unit that holds the result.
func Reduce(param int, pol policy.Policy, body ...Statement) *ReduceStmt {
	return &ReduceStmt{Param: param, Pol: pol, Stmts: body}
}

// Kind returns KindReduce.
func (s *ReduceStmt) Kind() Kind { return KindReduce }

// Policy returns the reduction policy.
func (s *ReduceStmt) Policy() policy.Policy { return s.Pol }

// Body returns the enclosed statements.
func (s *ReduceStmt) Body() []Statement { return s.Stmts }

func (s *ReduceStmt) String() string {
	return fmt.Sprintf("Reduce<Param<%d>, %s>", s.Param, s.Pol)
}

// SyncStmt is a barrier across the threads of a block.
type SyncStmt struct{}

// Sync returns a block barrier. On the host it does nothing.
func Sync() SyncStmt { return SyncStmt{} }

// Kind returns KindSync.
func (SyncStmt) Kind() Kind { return KindSync }

// Policy returns policy.NoPolicy().
func (SyncStmt) Policy() policy.Policy { return policy.NoPolicy() }

// Body returns nil.
func (SyncStmt) Body() []Statement { return nil }

func (SyncStmt) String() string { return "Sync" }

// LaunchStmt runs its body on a SIMT grid.
type LaunchStmt struct {
	Config policy.LaunchConfig
	Stmts  []Statement
}

// Launch runs body once per simulated thread of the grid described by cfg.
func Launch(cfg policy.LaunchConfig, body ...Statement) *LaunchStmt {
	return &LaunchStmt{Config: cfg, Stmts: body}
}

// Kind returns KindLaunch.
func (s *LaunchStmt) Kind() Kind { return KindLaunch }

// Policy returns policy.NoPolicy().
func (s *LaunchStmt) Policy() policy.Policy { return policy.NoPolicy() }

// Body returns the enclosed statements.
func (s *LaunchStmt) Body() []Statement { return s.Stmts }

func (s *LaunchStmt) String() string {
	return fmt.Sprintf("Launch<%s>", s.Config)
}

// Dump returns an indented listing of the statement tree.
func Dump(stmts []Statement) string {
	var sb strings.Builder
	dump(&sb, stmts, 0)
	return sb.String()
}

func dump(sb *strings.Builder, stmts []Statement, depth int) {
	for _, s := range stmts {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(s.String())
		sb.WriteByte('\n')
		dump(sb, s.Body(), depth+1)
	}
}

// Walk calls fn for every statement of the tree in pre-order.
func Walk(stmts []Statement, fn func(Statement)) {
	for _, s := range stmts {
		fn(s)
		Walk(s.Body(), fn)
	}
}
