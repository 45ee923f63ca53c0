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

// Package cmd holds implementations of the basaltmm commands.
package cmd

import (
	"github.com/basaltkernel/basalt/basaltmm/cmd/util"
	"github.com/basaltkernel/basalt/pkg/bootinfo"
	"github.com/basaltkernel/basalt/pkg/mem/physmem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
	"github.com/basaltkernel/basalt/pkg/mem/vmm"
)

// loadLayout reads and validates the boot layout file, exiting on failure.
func loadLayout(path string) *bootinfo.Layout {
	layout, err := bootinfo.Load(path)
	if err != nil {
		util.Fatalf("loading boot layout: %v", err)
	}
	return layout
}

// newAllocator builds the frame allocator selected by name over the
// layout's memory areas.
func newAllocator(name string, layout *bootinfo.Layout) pmm.FrameAllocator {
	switch name {
	case "area":
		return layout.Allocator()
	case "bitmap":
		return pmm.NewBitmapAllocator(layout.KernelStart, layout.KernelEnd,
			layout.BootInfoStart, layout.BootInfoEnd, layout.Regions())
	}
	util.Fatalf("invalid allocator %q, must be 'area' or 'bitmap'", name)
	panic("unreachable")
}

// buildSpace backs the layout's RAM with a host arena and boots an address
// space in it. The caller owns the arena.
func buildSpace(layout *bootinfo.Layout, allocator pmm.FrameAllocator) (*physmem.Arena, *vmm.AddressSpace) {
	arena, err := physmem.New(layout.TotalSize())
	if err != nil {
		util.Fatalf("reserving arena: %v", err)
	}
	return arena, vmm.New(arena, allocator)
}
