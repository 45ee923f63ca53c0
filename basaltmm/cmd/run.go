// Copyright 2026 The Basalt Authors.
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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/basaltkernel/basalt/basaltmm/cmd/util"
	"github.com/basaltkernel/basalt/basaltmm/scenario"
	"github.com/basaltkernel/basalt/pkg/log"
)

// Run implements subcommands.Command for the "run" command.
type Run struct{}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "run a scripted scenario against a fresh address space"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run <scenario.yaml>

The scenario names a boot layout, picks a frame allocator and lists the
operations to perform; translate steps may assert their outcome.

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Run) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Run) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	s, err := scenario.Load(f.Arg(0))
	if err != nil {
		util.Fatalf("loading scenario: %v", err)
	}
	layout := loadLayout(s.Layout)
	layout.LogTo(log.Log())

	name := s.Allocator
	if name == "" {
		name = "area"
	}
	allocator := newAllocator(name, layout)
	arena, space := buildSpace(layout, allocator)
	defer arena.Close()

	if err := s.Run(space, allocator, log.Log()); err != nil {
		log.Warningf("Scenario failed: %v", err)
		fmt.Fprintf(os.Stderr, "scenario failed: %v\n", err)
		return subcommands.ExitFailure
	}

	stats := space.Stats()
	fmt.Printf("%d steps ok (tables created: %d, mapped: %d, unmapped: %d)\n",
		len(s.Steps), stats.TablesCreated, stats.Mapped, stats.Unmapped)
	return subcommands.ExitSuccess
}
