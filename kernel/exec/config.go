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
	"os"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ajroetker/go-loopnest/hwy/contrib/workerpool"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvWorkers  = "LOOPNEST_WORKERS"
	EnvWarpSize = "LOOPNEST_WARP_SIZE"
)

// Config controls how kernels are compiled and run.
type Config struct {
	// Workers is the size of the pool a kernel creates when Pool is nil.
	// Zero means GOMAXPROCS.
	Workers int

	// WarpSize is the warp width bound to launches that do not set their
	// own. Zero means the launch platform's width.
	WarpSize int

	// Pool is shared by every kernel compiled with this config. A kernel
	// never closes a pool it did not create.
	Pool *workerpool.Pool

	// Logger receives debug records for compile and run. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a config using GOMAXPROCS workers and the default
// logger.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.GOMAXPROCS(0),
		Logger:  slog.Default(),
	}
}

// ConfigFromEnv returns DefaultConfig with LOOPNEST_WORKERS and
// LOOPNEST_WARP_SIZE applied.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	var err error
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = multierr.Append(err, errors.Wrapf(ErrConfig, "%s=%q: %v", EnvWorkers, v, perr))
		} else {
			cfg.Workers = n
		}
	}
	if v, ok := os.LookupEnv(EnvWarpSize); ok {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = multierr.Append(err, errors.Wrapf(ErrConfig, "%s=%q: %v", EnvWarpSize, v, perr))
		} else {
			cfg.WarpSize = n
		}
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var err error
	if c.Workers < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrConfig, "workers must be >= 0, got %d", c.Workers))
	}
	if c.WarpSize < 0 || (c.WarpSize > 0 && c.WarpSize&(c.WarpSize-1) != 0) {
		err = multierr.Append(err, errors.Wrapf(ErrConfig, "warp size must be 0 or a power of two, got %d", c.WarpSize))
	}
	return err
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
