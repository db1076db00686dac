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
	"os"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/ajroetker/go-loopnest/kernel/exec"
	"github.com/ajroetker/go-loopnest/kernel/policy"
)

// Config is the nestrun.yaml file.
type Config struct {
	Workers  int          `yaml:"workers"`
	WarpSize int          `yaml:"warp_size"`
	Backend  string       `yaml:"backend"`
	Length   int          `yaml:"length"`
	Launch   LaunchConfig `yaml:"launch"`
}

// LaunchConfig is the grid used by the simt backend.
type LaunchConfig struct {
	Platform string `yaml:"platform"`
	Blocks   int    `yaml:"blocks"`
	Threads  int    `yaml:"threads"`
}

func defaultConfig() *Config {
	return &Config{
		Backend: "seq",
		Length:  1 << 16,
		Launch: LaunchConfig{
			Platform: "cuda",
			Blocks:   4,
			Threads:  128,
		},
	}
}

// LoadConfig loads envFile, if it exists, then the YAML file at path. A
// missing file yields the defaults.
func LoadConfig(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, errors.Wrapf(err, "loading %s", envFile)
			}
		}
	}

	config := defaultConfig()
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return config, nil
	case err != nil:
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return config, nil
}

// ExecConfig returns the kernel configuration: the file's values with the
// LOOPNEST_* environment applied on top.
func (c *Config) ExecConfig() (exec.Config, error) {
	cfg := exec.DefaultConfig()
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	cfg.WarpSize = c.WarpSize
	env, err := exec.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	if _, ok := os.LookupEnv(exec.EnvWorkers); ok {
		cfg.Workers = env.Workers
	}
	if _, ok := os.LookupEnv(exec.EnvWarpSize); ok {
		cfg.WarpSize = env.WarpSize
	}
	return cfg, cfg.Validate()
}

// LaunchShape returns the grid of the simt backend.
func (c *Config) LaunchShape() (policy.LaunchConfig, error) {
	lc := policy.LaunchConfig{
		Blocks:  policy.D1(c.Launch.Blocks),
		Threads: policy.D1(c.Launch.Threads),
	}
	switch c.Launch.Platform {
	case "", "cuda":
		lc.Platform = policy.CUDA
	case "hip":
		lc.Platform = policy.HIP
	default:
		return lc, errors.Errorf("unknown platform %q, want cuda or hip", c.Launch.Platform)
	}
	return lc, nil
}
