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

// Package scenario runs scripted sequences of memory manager operations,
// read from YAML files.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"

	"github.com/basaltkernel/basalt/pkg/log"
	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
	"github.com/basaltkernel/basalt/pkg/mem/vmm"
)

// Scenario is a scripted exercise of an address space built from a boot
// layout.
type Scenario struct {
	// Layout is the path of the boot layout TOML file, relative to the
	// scenario file.
	Layout string `yaml:"layout"`

	// Allocator selects the frame allocator, "area" (the default) or
	// "bitmap".
	Allocator string `yaml:"allocator,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is a single operation of a scenario.
type Step struct {
	// Op is one of map, map_to, identity_map, unmap, translate, alloc,
	// dealloc or walk.
	Op string `yaml:"op"`

	// Addr is the virtual address operated on. Steps operate on the page
	// containing it.
	Addr uint64 `yaml:"addr,omitempty"`

	// Frame is the physical frame number for map_to, identity_map and
	// dealloc.
	Frame uint64 `yaml:"frame,omitempty"`

	// Flags are the entry flag names for the mapping ops.
	Flags []string `yaml:"flags,omitempty"`

	// Want is the physical address a translate step must produce; leaving
	// it unset asserts that the address has no mapping.
	Want *uint64 `yaml:"want,omitempty"`

	// Count is the number of frames an alloc step takes, 1 if unset.
	Count int `yaml:"count,omitempty"`
}

// Load reads a scenario from a YAML file. The layout path is resolved
// relative to the scenario file's directory.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open scenario: %w", err)
	}
	defer f.Close()

	var s Scenario
	dec := yaml.NewDecoder(f)
	dec.SetStrict(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("unable to decode %q: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", path, err)
	}
	if s.Layout != "" && !filepath.IsAbs(s.Layout) {
		s.Layout = filepath.Join(filepath.Dir(path), s.Layout)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Layout == "" {
		return fmt.Errorf("no boot layout file")
	}
	switch s.Allocator {
	case "", "area", "bitmap":
	default:
		return fmt.Errorf("unknown allocator %q, must be 'area' or 'bitmap'", s.Allocator)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	return nil
}

// Run executes the steps in order against the address space. Steps that
// violate the mapping contract panic just like direct calls would; Run
// returns an error only for failed expectations and malformed steps.
func (s *Scenario) Run(space *vmm.AddressSpace, allocator pmm.FrameAllocator, logger log.Logger) error {
	for i, step := range s.Steps {
		logger.Debugf("step %d: %s addr=%#x frame=%#x", i+1, step.Op, step.Addr, step.Frame)
		if err := step.run(space, allocator, logger); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	return nil
}

func (st *Step) run(space *vmm.AddressSpace, allocator pmm.FrameAllocator, logger log.Logger) error {
	switch st.Op {
	case "map":
		flags, err := vmm.ParseFlags(st.Flags)
		if err != nil {
			return err
		}
		space.Map(vmm.PageContaining(mem.VirtualAddress(st.Addr)), flags, allocator)

	case "map_to":
		flags, err := vmm.ParseFlags(st.Flags)
		if err != nil {
			return err
		}
		space.MapTo(vmm.PageContaining(mem.VirtualAddress(st.Addr)), pmm.Frame(st.Frame), flags, allocator)

	case "identity_map":
		flags, err := vmm.ParseFlags(st.Flags)
		if err != nil {
			return err
		}
		space.IdentityMap(pmm.Frame(st.Frame), flags, allocator)

	case "unmap":
		space.Unmap(vmm.PageContaining(mem.VirtualAddress(st.Addr)), allocator)

	case "translate":
		addr, ok := space.Translate(mem.VirtualAddress(st.Addr))
		if st.Want == nil {
			if ok {
				return fmt.Errorf("translated %#x to %#x, want no mapping", st.Addr, uint64(addr))
			}
			return nil
		}
		if !ok {
			return fmt.Errorf("no mapping for %#x, want %#x", st.Addr, *st.Want)
		}
		if uint64(addr) != *st.Want {
			return fmt.Errorf("translated %#x to %#x, want %#x", st.Addr, uint64(addr), *st.Want)
		}

	case "alloc":
		count := st.Count
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			frame, ok := allocator.AllocateFrame()
			if !ok {
				return fmt.Errorf("allocator exhausted after %d of %d frames", i, count)
			}
			logger.Debugf("allocated frame %#x", uint64(frame))
		}

	case "dealloc":
		allocator.DeallocateFrame(pmm.Frame(st.Frame))

	case "walk":
		space.Walk(func(m vmm.Mapping) bool {
			logger.Infof("page %#x -> frame %#x %v %v",
				uint64(m.Page.StartAddress()), uint64(m.Frame), m.Size, m.Flags)
			return true
		})

	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}
