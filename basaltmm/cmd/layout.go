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
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/basaltkernel/basalt/pkg/log"
	"github.com/basaltkernel/basalt/pkg/mem"
)

// Layout implements subcommands.Command for the "layout" command.
type Layout struct {
	// If true, the layout is printed as JSON instead of text.
	json bool
}

// Name implements subcommands.Command.Name.
func (*Layout) Name() string {
	return "layout"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Layout) Synopsis() string {
	return "print the boot memory layout: RAM areas, kernel and boot info images"
}

// Usage implements subcommands.Command.Usage.
func (*Layout) Usage() string {
	return `layout [flags] <layout.toml>

Where "<layout.toml>" describes the machine's memory at boot.

OPTIONS:
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (l *Layout) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&l.json, "json", false, "print the layout as JSON")
}

// Execute implements subcommands.Command.Execute.
func (l *Layout) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	layout := loadLayout(f.Arg(0))
	log.Debugf("Loaded boot layout from %q", f.Arg(0))

	if l.json {
		if err := json.NewEncoder(os.Stdout).Encode(layout); err != nil {
			log.Warningf("Error encoding layout: %v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	fmt.Printf("memory areas:\n")
	for _, a := range layout.Areas {
		fmt.Printf("    start: %#x, length: %#x\n", a.Base, a.Length)
	}
	fmt.Printf("kernel start: %#x, kernel end: %#x\n", layout.KernelStart, layout.KernelEnd)
	fmt.Printf("boot info start: %#x, boot info end: %#x\n", layout.BootInfoStart, layout.BootInfoEnd)
	fmt.Printf("total RAM: %v (%d frames)\n", layout.TotalSize(), layout.TotalSize()/mem.PageSize)
	return subcommands.ExitSuccess
}
