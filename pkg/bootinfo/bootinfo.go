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

// Package bootinfo describes the machine memory layout handed over by the
// boot loader: the usable RAM areas, the frames holding the kernel image
// and the frames holding the boot information structure itself.
package bootinfo

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/basaltkernel/basalt/pkg/log"
	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

// Area is one usable RAM range reported by the boot loader. Areas are not
// required to arrive sorted.
type Area struct {
	Base   mem.PhysicalAddress `toml:"base"`
	Length mem.Size            `toml:"length"`
}

// Layout is the boot-time memory layout. The kernel and boot info ranges
// name the first and last byte of each image; every frame they touch must
// stay out of the frame allocator's hands.
type Layout struct {
	KernelStart   mem.PhysicalAddress `toml:"kernel_start"`
	KernelEnd     mem.PhysicalAddress `toml:"kernel_end"`
	BootInfoStart mem.PhysicalAddress `toml:"boot_info_start"`
	BootInfoEnd   mem.PhysicalAddress `toml:"boot_info_end"`
	Areas         []Area              `toml:"area"`
}

// Load reads and validates a layout from a TOML file.
func Load(path string) (*Layout, error) {
	var l Layout
	if _, err := toml.DecodeFile(path, &l); err != nil {
		return nil, fmt.Errorf("decoding boot layout %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid boot layout %s: %w", path, err)
	}
	return &l, nil
}

// Validate checks the layout for the mistakes a hand-written file can
// carry. It does not require sorted areas; the allocators handle those.
func (l *Layout) Validate() error {
	if l.KernelEnd < l.KernelStart {
		return fmt.Errorf("kernel range [%#x, %#x] ends before it starts", l.KernelStart, l.KernelEnd)
	}
	if l.BootInfoEnd < l.BootInfoStart {
		return fmt.Errorf("boot info range [%#x, %#x] ends before it starts", l.BootInfoStart, l.BootInfoEnd)
	}
	if len(l.Areas) == 0 {
		return fmt.Errorf("no memory areas")
	}
	for i, a := range l.Areas {
		if a.Length == 0 {
			return fmt.Errorf("area %d at %#x has zero length", i, a.Base)
		}
	}
	sorted := append([]Area(nil), l.Areas...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Base < sorted[j].Base })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if sorted[i].Base < prev.Base+mem.PhysicalAddress(prev.Length) {
			return fmt.Errorf("area at %#x overlaps area at %#x", sorted[i].Base, prev.Base)
		}
	}
	return nil
}

// Regions converts the areas into allocator regions.
func (l *Layout) Regions() []pmm.Region {
	regions := make([]pmm.Region, 0, len(l.Areas))
	for _, a := range l.Areas {
		regions = append(regions, pmm.Region{Base: a.Base, Length: a.Length})
	}
	return regions
}

// TotalSize returns the amount of usable RAM across all areas.
func (l *Layout) TotalSize() mem.Size {
	var total mem.Size
	for _, a := range l.Areas {
		total += a.Length
	}
	return total
}

// Allocator builds the boot frame allocator over the layout's areas,
// refusing to hand out any frame of the kernel image or the boot
// information structure.
func (l *Layout) Allocator() *pmm.AreaAllocator {
	return pmm.NewAreaAllocator(l.KernelStart, l.KernelEnd, l.BootInfoStart, l.BootInfoEnd, l.Regions())
}

// LogTo prints the layout the way the boot path reports it.
func (l *Layout) LogTo(logger log.Logger) {
	logger.Infof("memory areas:")
	for _, a := range l.Areas {
		logger.Infof("    start: %#x, length: %#x", a.Base, a.Length)
	}
	logger.Infof("kernel start: %#x, kernel end: %#x", l.KernelStart, l.KernelEnd)
	logger.Infof("boot info start: %#x, boot info end: %#x", l.BootInfoStart, l.BootInfoEnd)
}
