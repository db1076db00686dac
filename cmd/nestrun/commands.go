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
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/ajroetker/go-loopnest/hwy"
	"github.com/ajroetker/go-loopnest/hwy/contrib/workerpool"
	"github.com/ajroetker/go-loopnest/kernel/exec"
)

// RunCmd runs one workload.
type RunCmd struct {
	Workload string `arg:"" enum:"coverage,daxpy,fma,matvec,sum" help:"Workload to run (coverage, daxpy, fma, matvec, sum)"`
	Backend  string `help:"Backend: seq, simd, parallel or simt (default from config)" short:"b"`
	Length   int    `help:"Segment length (default from config)" short:"n"`
	Workers  int    `help:"Worker pool size (default from config)" short:"w"`
}

// Run executes the run command.
func (cmd *RunCmd) Run(ctx *Context) error {
	config, err := LoadConfig(ctx.Config, ctx.EnvFile)
	if err != nil {
		return err
	}
	if cmd.Backend != "" {
		config.Backend = cmd.Backend
	}
	if cmd.Length > 0 {
		config.Length = cmd.Length
	}
	if cmd.Workers > 0 {
		config.Workers = cmd.Workers
	}

	res, err := runWorkload(config, cmd.Workload, ctx)
	if err != nil {
		color.Red("%s on %s failed", cmd.Workload, config.Backend)
		return err
	}
	color.Cyan("%s on %s, length %d, %d workers", cmd.Workload, res.backend, config.Length, res.workers)
	color.Green("result: %s", res.value)
	fmt.Printf("elapsed: %s\n", res.elapsed)
	return nil
}

type result struct {
	backend string
	workers int
	value   string
	elapsed time.Duration
}

func runWorkload(config *Config, name string, ctx *Context) (*result, error) {
	w, ok := workloads[name]
	if !ok {
		return nil, errors.Errorf("unknown workload %q, want one of %s", name, strings.Join(workloadNames(), ", "))
	}
	if config.Length < 0 {
		return nil, errors.Errorf("length must be >= 0, got %d", config.Length)
	}
	cfg, err := config.ExecConfig()
	if err != nil {
		return nil, err
	}
	cfg.Logger = ctx.Logger
	lc, err := config.LaunchShape()
	if err != nil {
		return nil, err
	}
	b, err := parseBackend(config.Backend, lc)
	if err != nil {
		return nil, err
	}

	pool := workerpool.New(cfg.Workers)
	defer pool.Close()
	cfg.Pool = pool

	start := time.Now()
	value, err := w.run(job{cfg: cfg, backend: b, n: config.Length})
	if err != nil {
		return nil, errors.WithMessagef(err, "workload %s", name)
	}
	return &result{
		backend: b.name,
		workers: pool.NumWorkers(),
		value:   value,
		elapsed: time.Since(start),
	}, nil
}

// InfoCmd describes the dispatch level and the executor table.
type InfoCmd struct{}

// Run executes the info command.
func (cmd *InfoCmd) Run() error {
	color.Cyan("dispatch: %s (%d-byte registers, fma=%t)", hwy.CurrentName(), hwy.CurrentWidth(), hwy.HasFMA())
	if hwy.NoSimdEnv() {
		color.Yellow("HWY_NO_SIMD is set: scalar dispatch forced")
	}
	fmt.Printf("float32 lanes: %d, float64 lanes: %d\n", hwy.MaxLanes[float32](), hwy.MaxLanes[float64]())
	fmt.Println("executors:")
	for _, line := range executorTable() {
		fmt.Println(line)
	}
	fmt.Println("workloads:")
	for _, name := range workloadNames() {
		fmt.Printf("  %-9s %s\n", name, workloads[name].help)
	}
	return nil
}

// executorTable lists registered executors, one line per family and
// statement kind.
func executorTable() []string {
	groups := lo.GroupBy(exec.Registered(), func(e exec.Entry) string {
		return fmt.Sprintf("%s %s", e.Family, e.Stmt)
	})
	keys := lo.Uniq(lo.Map(exec.Registered(), func(e exec.Entry, _ int) string {
		return fmt.Sprintf("%s %s", e.Family, e.Stmt)
	}))
	return lo.Map(keys, func(key string, _ int) string {
		pols := lo.Map(groups[key], func(e exec.Entry, _ int) string { return e.Policy.String() })
		return fmt.Sprintf("  %-18s %s", key, strings.Join(pols, " "))
	})
}
