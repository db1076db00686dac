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
	"go.uber.org/multierr"

	"github.com/ajroetker/go-loopnest/kernel/policy"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
)

// MaxThreadsPerBlock bounds the block size of a Launch.
const MaxThreadsPerBlock = 1024

type compiler struct {
	cfg       Config
	executors int
}

// list compiles stmts into one executor that runs them in order. Errors of
// every statement are collected.
func (c *compiler) list(stmts []stmt.Statement, env Env) (Fn, error) {
	var err error
	fns := make([]Fn, 0, len(stmts))
	for _, s := range stmts {
		fn, serr := c.statement(s, env)
		err = multierr.Append(err, serr)
		fns = append(fns, fn)
	}
	if err != nil {
		return nil, err
	}
	switch len(fns) {
	case 0:
		return func(*Frame, bool) {}, nil
	case 1:
		return fns[0], nil
	}
	return func(f *Frame, active bool) {
		for _, fn := range fns {
			fn(f, active)
		}
	}, nil
}

func (c *compiler) statement(s stmt.Statement, env Env) (Fn, error) {
	if s == nil {
		return nil, errors.Wrapf(ErrNilStatement, "in %s family", env.Family)
	}
	var err error
	b, ok := Lookup(env.Family, s.Kind(), s.Policy().Kind())
	if !ok {
		err = errors.Wrapf(ErrNoExecutor, "%s in %s family", s, env.Family)
	}

	inner := env
	if l, isLaunch := s.(*stmt.LaunchStmt); isLaunch {
		inner = Env{Family: Device, Warp: bindLaunch(l.Config, env.Warp).Warp()}
	}
	body, berr := c.list(s.Body(), inner)
	err = multierr.Append(err, berr)
	if err != nil {
		return nil, err
	}

	fn, err := b(s, body, env)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", s)
	}
	c.executors++
	return fn, nil
}

// bindLaunch returns cfg with its warp width fixed: the launch's own, else
// the configured default, else the platform's.
func bindLaunch(cfg policy.LaunchConfig, warp int) policy.LaunchConfig {
	if cfg.WarpSize <= 0 && warp > 0 {
		cfg.WarpSize = warp
	}
	cfg.WarpSize = cfg.Warp()
	return cfg
}

func validateLaunch(cfg policy.LaunchConfig) error {
	var err error
	for _, d := range []struct {
		name string
		dim  policy.Dim3
	}{{"blocks", cfg.Blocks}, {"threads", cfg.Threads}} {
		if d.dim.X < 0 || d.dim.Y < 0 || d.dim.Z < 0 {
			err = multierr.Append(err, errors.Wrapf(ErrLaunchConfig, "negative %s extent %s", d.name, d.dim))
		}
	}
	if n := cfg.Threads.Size(); n > MaxThreadsPerBlock {
		err = multierr.Append(err, errors.Wrapf(ErrLaunchConfig, "%d threads per block exceeds %d", n, MaxThreadsPerBlock))
	}
	if w := cfg.Warp(); w&(w-1) != 0 {
		err = multierr.Append(err, errors.Wrapf(ErrLaunchConfig, "warp width %d is not a power of two", w))
	}
	return err
}
