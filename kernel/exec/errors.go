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

// Package exec compiles statement trees into executors and runs them.
//
// Compile walks the tree once and, for every statement, looks up the
// executor registered for its (family, statement kind, policy kind) triple.
// The result is a Kernel: a tree of closures that Run invokes with a bound
// execution context. All dispatch happens at compile time; every id is
// checked when Run binds the context, so a running kernel has no error
// path. Out-of-range indices are handled by the active flag or by loop
// termination.
//
// Two families exist. Host executors run on the calling goroutine or the
// worker pool. Device executors run inside a Launch statement, on a
// simulated SIMT grid where every thread is a goroutine with its own
// replicated context and the threads of a block share a barrier.
package exec

import "github.com/pkg/errors"

var (
	// ErrNoExecutor is returned when no executor is registered for a
	// statement and policy in the family it appears in.
	ErrNoExecutor = errors.New("no executor")
	// ErrMaskTooWide is returned when a warp-masked policy selects more lanes
	// than the warp of its launch has, or a thread-masked policy more than a
	// block can hold.
	ErrMaskTooWide = errors.New("mask wider than warp")
	// ErrLaunchConfig is returned for a launch shape that cannot run.
	ErrLaunchConfig = errors.New("invalid launch configuration")
	// ErrNilStatement is returned when a statement list contains nil.
	ErrNilStatement = errors.New("nil statement")
	// ErrUnknownBody is returned when a Lambda names a body index that was
	// not passed to Run.
	ErrUnknownBody = errors.New("unknown body index")
	// ErrDuplicateReducer is returned when one reducer fills two param slots.
	ErrDuplicateReducer = errors.New("reducer bound to more than one param")
	// ErrNilBody is returned when Run is given a nil body.
	ErrNilBody = errors.New("nil body")
	// ErrNotCounter is returned when a ForICount param slot is not an *int.
	ErrNotCounter = errors.New("param is not an *int counter")
	// ErrNotReducer is returned when a Reduce param is not a reducer.
	ErrNotReducer = errors.New("param is not a reducer")
	// ErrConfig is returned for invalid configuration values.
	ErrConfig = errors.New("invalid configuration")
)
