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

// Command nestrun runs built-in loop-nest workloads on a chosen backend.
//
// Usage:
//
//	nestrun run sum --backend parallel --length 100000
//	nestrun run matvec --backend simt -v
//	nestrun info
//
// Settings are read from nestrun.yaml when present, after loading .env.
// LOOPNEST_WORKERS and LOOPNEST_WARP_SIZE override the file; flags override
// both.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

const version = "v0.3.0"

// Context is shared by every command.
type Context struct {
	Config  string
	EnvFile string
	Verbose bool
	Logger  *slog.Logger
}

// CLI is the command-line interface.
var CLI struct {
	Config  string     `help:"Configuration file path" default:"nestrun.yaml"`
	EnvFile string     `help:"Environment file loaded before the configuration" default:".env"`
	Verbose bool       `help:"Log kernel compile and run events" short:"v"`
	Run     RunCmd     `cmd:"" help:"Run a workload"`
	Info    InfoCmd    `cmd:"" help:"Show dispatch level and registered executors"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println("nestrun " + version)
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("nestrun"),
		kong.Description("Run loop-nest kernels on host and simulated SIMT backends."),
		kong.UsageOnError(),
	)

	appCtx := &Context{
		Config:  CLI.Config,
		EnvFile: CLI.EnvFile,
		Verbose: CLI.Verbose,
		Logger:  newLogger(CLI.Verbose),
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
