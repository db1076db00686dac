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
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ajroetker/go-loopnest/hwy/contrib/workerpool"
	"github.com/ajroetker/go-loopnest/kernel/arg"
	"github.com/ajroetker/go-loopnest/kernel/data"
	"github.com/ajroetker/go-loopnest/kernel/reduce"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
)

// Kernel is a compiled statement tree.
//
// A Kernel holds no run state: Run may be called any number of times, and
// concurrently with distinct contexts.
type Kernel struct {
	id        uuid.UUID
	stmts     []stmt.Statement
	root      Fn
	executors int
	pool      *workerpool.Pool
	ownsPool  bool
	log       *slog.Logger
}

// Compile builds the executors of stmts. It fails with every missing
// executor, mask too wide for its warp, and invalid launch shape found in
// the tree.
func Compile(cfg Config, stmts ...stmt.Statement) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &compiler{cfg: cfg}
	root, err := c.list(stmts, Env{Family: Host, Warp: cfg.WarpSize})
	if err != nil {
		return nil, err
	}
	k := &Kernel{
		id:        uuid.New(),
		stmts:     stmts,
		root:      root,
		executors: c.executors,
		pool:      cfg.Pool,
		log:       cfg.logger(),
	}
	if k.pool == nil {
		k.pool = workerpool.New(cfg.Workers)
		k.ownsPool = true
	}
	k.log.Debug("kernel compiled",
		"kernel", k.id,
		"executors", k.executors,
		"workers", k.pool.NumWorkers())
	return k, nil
}

// ID returns the kernel's unique id, used to correlate log records.
func (k *Kernel) ID() uuid.UUID {
	return k.id
}

// Executors returns the number of executors the kernel was built from.
func (k *Kernel) Executors() int {
	return k.executors
}

// Close releases the kernel's worker pool if the kernel created it.
func (k *Kernel) Close() {
	if k.ownsPool {
		k.pool.Close()
	}
}

// String returns the statement tree.
func (k *Kernel) String() string {
	return stmt.Dump(k.stmts)
}

// Run executes the kernel against d with the given bodies.
//
// Every statement id is bound against d and bodies first; on failure Run
// returns before any side effect. Then every reducer param is initialized,
// the tree runs, and every reducer is resolved into its target exactly
// once. A reducer that was already resolved by an earlier run is a bind
// error.
func (k *Kernel) Run(d *data.Data, bodies ...Body) error {
	if err := k.bind(d, bodies); err != nil {
		return errors.WithMessagef(err, "binding kernel %s", k.id)
	}

	rs := reducers(d)
	proto := reduce.NewProtocol(reduce.Seq)
	for _, r := range rs {
		proto.Init(r)
	}

	start := time.Now()
	f := &Frame{
		data:     d,
		bodies:   bodies,
		defaults: arg.Defaults(d),
		pool:     k.pool,
	}
	k.root(f, true)

	var err error
	for _, r := range rs {
		err = multierr.Append(err, proto.Resolve(r))
	}
	k.log.Debug("kernel run",
		"kernel", k.id,
		"segments", d.NumSegments(),
		"reducers", len(rs),
		"elapsed", time.Since(start))
	return err
}

// bind checks every id the tree uses against d and bodies.
func (k *Kernel) bind(d *data.Data, bodies []Body) error {
	var err error
	for i, b := range bodies {
		if b == nil {
			err = multierr.Append(err, errors.Wrapf(ErrNilBody, "body %d", i))
		}
	}
	seen := make(map[reduce.Param]int)
	for id, p := range d.Params() {
		r, ok := p.(reduce.Param)
		if !ok {
			continue
		}
		if r.Resolved() {
			err = multierr.Append(err, errors.Wrapf(reduce.ErrAlreadyResolved, "param %d", id))
		}
		if !reflect.TypeOf(r).Comparable() {
			continue
		}
		if first, dup := seen[r]; dup {
			err = multierr.Append(err, errors.Wrapf(ErrDuplicateReducer, "params %d and %d", first, id))
			continue
		}
		seen[r] = id
	}
	stmt.Walk(k.stmts, func(s stmt.Statement) {
		err = multierr.Append(err, bindStatement(s, d, len(bodies)))
	})
	return err
}

func bindStatement(s stmt.Statement, d *data.Data, numBodies int) error {
	switch s := s.(type) {
	case *stmt.ForStmt:
		return bindSegment(s, s.Arg, d)
	case *stmt.ForICountStmt:
		err := bindSegment(s, s.Arg, d)
		if s.Param < 0 || s.Param >= d.NumParams() {
			return multierr.Append(err, errors.Wrapf(arg.ErrUnknownParam, "%s: context has %d params", s, d.NumParams()))
		}
		if _, ok := d.Param(s.Param).(*int); !ok {
			err = multierr.Append(err, errors.Wrapf(ErrNotCounter, "%s: param %d is %T", s, s.Param, d.Param(s.Param)))
		}
		return err
	case *stmt.LambdaStmt:
		var err error
		if s.Index < 0 || s.Index >= numBodies {
			err = errors.Wrapf(ErrUnknownBody, "%s: %d bodies given", s, numBodies)
		}
		if verr := arg.Validate(s.Args, d); verr != nil {
			err = multierr.Append(err, errors.WithMessagef(verr, "%s", s))
		}
		return err
	case *stmt.ReduceStmt:
		if s.Param < 0 || s.Param >= d.NumParams() {
			return errors.Wrapf(arg.ErrUnknownParam, "%s: context has %d params", s, d.NumParams())
		}
		if _, ok := d.Param(s.Param).(reduce.Param); !ok {
			return errors.Wrapf(ErrNotReducer, "%s: param %d is %T", s, s.Param, d.Param(s.Param))
		}
	}
	return nil
}

func bindSegment(s stmt.Statement, id int, d *data.Data) error {
	if id < 0 || id >= d.NumSegments() {
		return errors.Wrapf(arg.ErrUnknownSegment, "%s: context has %d segments", s, d.NumSegments())
	}
	return nil
}
