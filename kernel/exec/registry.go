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
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/ajroetker/go-loopnest/kernel/policy"
	"github.com/ajroetker/go-loopnest/kernel/stmt"
)

// Family is the set of executors a statement may dispatch to.
type Family int

const (
	// Host executors run on the calling goroutine or the worker pool.
	Host Family = iota
	// Device executors run inside a Launch, once per simulated thread.
	Device
)

func (fam Family) String() string {
	if fam == Device {
		return "device"
	}
	return "host"
}

// Env is what a Builder knows about the place a statement is compiled in.
type Env struct {
	Family Family
	// Warp is the warp width bound on the device, or the configured default
	// (possibly 0) on the host.
	Warp int
}

// Builder turns one statement into an executor. body is the compiled list
// of the statement's enclosed statements.
type Builder func(s stmt.Statement, body Fn, env Env) (Fn, error)

// Entry names one registered executor.
type Entry struct {
	Family Family
	Stmt   stmt.Kind
	Policy policy.Kind
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s<%s>", e.Family, e.Stmt, e.Policy)
}

var (
	registryMu sync.RWMutex
	registry   = map[Entry]Builder{}
)

// Register installs b as the executor of statements of kind sk with policy
// kind pk in family fam, replacing any previous one. Kernels compiled
// before the call keep the executor they were built with.
func Register(fam Family, sk stmt.Kind, pk policy.Kind, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[Entry{Family: fam, Stmt: sk, Policy: pk}] = b
}

// Lookup returns the executor builder for the triple.
func Lookup(fam Family, sk stmt.Kind, pk policy.Kind) (Builder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[Entry{Family: fam, Stmt: sk, Policy: pk}]
	return b, ok
}

// Registered lists every registered executor, ordered by family, statement
// kind and policy kind.
func Registered() []Entry {
	registryMu.RLock()
	entries := make([]Entry, 0, len(registry))
	for e := range registry {
		entries = append(entries, e)
	}
	registryMu.RUnlock()
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Family, b.Family),
			cmp.Compare(a.Stmt, b.Stmt),
			cmp.Compare(a.Policy, b.Policy),
		)
	})
	return entries
}

func init() {
	registerHost()
	registerDevice()
}
