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

	"github.com/google/subcommands"

	"github.com/basaltkernel/basalt/basaltmm/cmd/util"
	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

// Frames implements subcommands.Command for the "frames" command.
type Frames struct {
	// allocator names the frame allocator to exercise.
	allocator string
}

// Name implements subcommands.Command.Name.
func (*Frames) Name() string {
	return "frames"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Frames) Synopsis() string {
	return "drain the frame allocator and report what it handed out"
}

// Usage implements subcommands.Command.Usage.
func (*Frames) Usage() string {
	return `frames [flags] <layout.toml>

Allocates frames until the allocator reports exhaustion and prints how much
usable memory the boot layout leaves after the reserved images.

OPTIONS:
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (fr *Frames) SetFlags(f *flag.FlagSet) {
	f.StringVar(&fr.allocator, "allocator", "area", "frame allocator to use: area or bitmap")
}

// Execute implements subcommands.Command.Execute.
func (fr *Frames) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	layout := loadLayout(f.Arg(0))
	allocator := newAllocator(fr.allocator, layout)

	total := uint64(layout.TotalSize() / mem.PageSize)
	var (
		count       uint64
		first, last pmm.Frame
	)
	for {
		frame, ok := allocator.AllocateFrame()
		if !ok {
			break
		}
		if count == 0 {
			first = frame
		}
		last = frame
		count++
		if count > total {
			util.Fatalf("allocator produced frame %#x beyond the layout's %d frames", uint64(frame), total)
		}
	}

	fmt.Printf("allocated %d of %d frames (%v of %v)\n",
		count, total, mem.Size(count)*mem.PageSize, layout.TotalSize())
	if count > 0 {
		fmt.Printf("first frame: %#x, last frame: %#x\n", uint64(first), uint64(last))
	}
	fmt.Printf("reserved for kernel image: [%#x, %#x]\n", layout.KernelStart, layout.KernelEnd)
	fmt.Printf("reserved for boot info: [%#x, %#x]\n", layout.BootInfoStart, layout.BootInfoEnd)
	return subcommands.ExitSuccess
}
