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
	"github.com/basaltkernel/basalt/pkg/mem/vmm"
)

// Paging implements subcommands.Command for the "paging" command.
type Paging struct {
	allocator string
	// If true, every installed mapping is printed before the teardown.
	dump bool
}

// Name implements subcommands.Command.Name.
func (*Paging) Name() string {
	return "paging"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Paging) Synopsis() string {
	return "boot an address space and run a map/translate/unmap exercise"
}

// Usage implements subcommands.Command.Usage.
func (*Paging) Usage() string {
	return `paging [flags] <layout.toml>

Backs the layout's RAM with a host arena, boots a fresh address space in it
and walks one page through its life cycle.

OPTIONS:
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (p *Paging) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.allocator, "allocator", "area", "frame allocator to use: area or bitmap")
	f.BoolVar(&p.dump, "dump", false, "print all mappings while the test page is mapped")
}

// Execute implements subcommands.Command.Execute.
func (p *Paging) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	layout := loadLayout(f.Arg(0))
	allocator := newAllocator(p.allocator, layout)
	arena, space := buildSpace(layout, allocator)
	defer arena.Close()

	// A page deep in the lower half, backed by the next free frame.
	addr := mem.VirtualAddress(42 * mem.Gb)
	page := vmm.PageContaining(addr)
	frame, ok := allocator.AllocateFrame()
	if !ok {
		util.Fatalf("no frames available for the test page")
	}

	fmt.Printf("translate(%#x) = %s\n", uint64(addr), formatTranslate(space, addr))
	space.MapTo(page, frame, vmm.FlagWriteable, allocator)
	fmt.Printf("mapped page %#x to frame %#x\n", uint64(page.StartAddress()), uint64(frame))
	fmt.Printf("translate(%#x) = %s\n", uint64(addr), formatTranslate(space, addr))
	if next, ok := allocator.AllocateFrame(); ok {
		fmt.Printf("next free frame: %#x\n", uint64(next))
	}

	if p.dump {
		space.Walk(func(m vmm.Mapping) bool {
			fmt.Printf("page %#x -> frame %#x %v %v\n",
				uint64(m.Page.StartAddress()), uint64(m.Frame), m.Size, m.Flags)
			return true
		})
	}

	space.Unmap(page, allocator)
	fmt.Printf("translate(%#x) = %s\n", uint64(addr), formatTranslate(space, addr))

	stats := space.Stats()
	fmt.Printf("tables created: %d, mapped: %d, unmapped: %d, tlb hits: %d, tlb misses: %d\n",
		stats.TablesCreated, stats.Mapped, stats.Unmapped, stats.TLBHits, stats.TLBMisses)
	return subcommands.ExitSuccess
}

func formatTranslate(space *vmm.AddressSpace, addr mem.VirtualAddress) string {
	phys, ok := space.Translate(addr)
	if !ok {
		return "none"
	}
	return fmt.Sprintf("%#x", uint64(phys))
}
