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

package vmm

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/physmem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

const testArenaSize = 4 * mem.Mb

// testSpace builds an address space over a small arena with every arena
// frame allocatable. Frame 0 is excluded, as a loaded kernel image would
// exclude its own frames.
func testSpace(t *testing.T) (*AddressSpace, *pmm.AreaAllocator) {
	t.Helper()
	arena, err := physmem.New(testArenaSize)
	if err != nil {
		t.Fatalf("physmem.New: %v", err)
	}
	t.Cleanup(func() { arena.Close() })
	allocator := pmm.NewAreaAllocator(0, 0, 0, 0, []pmm.Region{{Base: 0, Length: testArenaSize}})
	return New(arena, allocator), allocator
}

func TestTranslateUnmapped(t *testing.T) {
	s, _ := testSpace(t)
	for _, addr := range []mem.VirtualAddress{
		0,
		0x1000,
		mem.VirtualAddress(42 * mem.Gb),
		0xffff_8000_0000_0000,
	} {
		if got, ok := s.Translate(addr); ok {
			t.Errorf("Translate(%#x): got %#x, want no mapping", uint64(addr), uint64(got))
		}
	}
}

func TestMapToTranslate(t *testing.T) {
	s, allocator := testSpace(t)

	// The target frame lies outside the arena: entries hold plain frame
	// numbers, only page tables need arena backing.
	addr := mem.VirtualAddress(42 * mem.Gb)
	page := PageContaining(addr)
	frame := pmm.Frame(0x100000)
	s.MapTo(page, frame, FlagWriteable, allocator)

	for _, offset := range []mem.VirtualAddress{0, 1, 42, 0xfff} {
		got, ok := s.Translate(addr + offset)
		if !ok {
			t.Fatalf("Translate(%#x): no mapping", uint64(addr+offset))
		}
		if want := frame.Address() + mem.PhysicalAddress(offset); got != want {
			t.Errorf("Translate(%#x): got %#x, want %#x", uint64(addr+offset), uint64(got), uint64(want))
		}
	}
}

func TestMapAllocatesFrame(t *testing.T) {
	s, allocator := testSpace(t)

	page := PageContaining(0xdead_b000)
	s.Map(page, FlagWriteable, allocator)

	got, ok := s.Translate(page.StartAddress())
	if !ok {
		t.Fatal("mapped page does not translate")
	}
	if got >= mem.PhysicalAddress(testArenaSize) {
		t.Errorf("allocated frame %#x lies outside the allocator's region", uint64(got))
	}
}

func TestIdentityMap(t *testing.T) {
	s, allocator := testSpace(t)

	frame := pmm.Frame(0x200)
	s.IdentityMap(frame, FlagWriteable, allocator)

	got, ok := s.Translate(mem.VirtualAddress(frame.Address()))
	if !ok {
		t.Fatal("identity mapped frame does not translate")
	}
	if want := frame.Address(); got != want {
		t.Errorf("Translate: got %#x, want %#x", uint64(got), uint64(want))
	}
}

func TestMapToOccupiedPanics(t *testing.T) {
	s, allocator := testSpace(t)

	page := PageContaining(0x4000_0000)
	s.MapTo(page, pmm.Frame(0x10), FlagWriteable, allocator)
	assertPanics(t, "already mapped", func() {
		s.MapTo(page, pmm.Frame(0x20), FlagWriteable, allocator)
	})
}

func TestUnmapRoundTrip(t *testing.T) {
	s, allocator := testSpace(t)

	addr := mem.VirtualAddress(42 * mem.Gb)
	page := PageContaining(addr)
	s.Map(page, FlagWriteable, allocator)
	if _, ok := s.Translate(addr); !ok {
		t.Fatal("mapped page does not translate")
	}

	s.Unmap(page, allocator)
	if got, ok := s.Translate(addr); ok {
		t.Fatalf("Translate after Unmap: got %#x, want no mapping", uint64(got))
	}

	// The slot is free again.
	s.MapTo(page, pmm.Frame(0x33), FlagWriteable, allocator)
	got, ok := s.Translate(addr)
	if !ok {
		t.Fatal("remapped page does not translate")
	}
	if want := pmm.Frame(0x33).Address(); got != want {
		t.Errorf("Translate after remap: got %#x, want %#x", uint64(got), uint64(want))
	}
}

func TestUnmapUnmappedPanics(t *testing.T) {
	s, allocator := testSpace(t)
	assertPanics(t, "is not mapped", func() {
		s.Unmap(PageContaining(0x5000), allocator)
	})

	// A sibling mapping does not make the page itself mapped.
	s.MapTo(PageContaining(0x4000), pmm.Frame(0x10), FlagWriteable, allocator)
	assertPanics(t, "is not mapped", func() {
		s.Unmap(PageContaining(0x5000), allocator)
	})
}

func TestUnmapHugePanics(t *testing.T) {
	s, allocator := testSpace(t)

	// Install a 2 MiB mapping by hand; the mapping path cannot create one.
	p4 := s.tableAt(s.root)
	p3 := s.nextTableCreate(p4, 0, allocator)
	p2 := s.nextTableCreate(p3, 0, allocator)
	p2[5].Set(pmm.Frame(3*entryCount), FlagWriteable|FlagHugePage)

	page := pageForIndices(0, 0, 5, 0)
	if _, ok := s.Translate(page.StartAddress()); !ok {
		t.Fatal("huge mapped page does not translate")
	}
	assertPanics(t, "does not support huge pages", func() {
		s.Unmap(page, allocator)
	})
}

func TestTranslateHuge(t *testing.T) {
	s, allocator := testSpace(t)
	p4 := s.tableAt(s.root)
	p3 := s.nextTableCreate(p4, 0, allocator)

	// 1 GiB entry at P3 index 1 and a 2 MiB entry two levels down.
	p3[1].Set(pmm.Frame(entryCount*entryCount), FlagHugePage)
	p2 := s.nextTableCreate(p3, 0, allocator)
	p2[2].Set(pmm.Frame(7*entryCount), FlagHugePage)

	// Inside the 1 GiB mapping: start frame + p2*512 + p1 frames.
	addr := pageForIndices(0, 1, 3, 4).StartAddress() + 0x123
	got, ok := s.Translate(addr)
	if !ok {
		t.Fatal("address in 1 GiB mapping does not translate")
	}
	want := pmm.Frame(entryCount*entryCount + 3*entryCount + 4).Address() + 0x123
	if got != want {
		t.Errorf("1 GiB Translate: got %#x, want %#x", uint64(got), uint64(want))
	}

	// Inside the 2 MiB mapping: start frame + p1 frames.
	addr = pageForIndices(0, 0, 2, 9).StartAddress() + 1
	got, ok = s.Translate(addr)
	if !ok {
		t.Fatal("address in 2 MiB mapping does not translate")
	}
	want = pmm.Frame(7*entryCount + 9).Address() + 1
	if got != want {
		t.Errorf("2 MiB Translate: got %#x, want %#x", uint64(got), uint64(want))
	}
}

func TestTranslateHugeUnalignedPanics(t *testing.T) {
	s, allocator := testSpace(t)
	p4 := s.tableAt(s.root)
	p3 := s.nextTableCreate(p4, 0, allocator)

	// Frame 100 is aligned to neither 512*512 nor 512 frames.
	p3[1].Set(pmm.Frame(100), FlagHugePage)
	assertPanics(t, "not aligned", func() {
		s.Translate(pageForIndices(0, 1, 0, 0).StartAddress())
	})

	p2 := s.nextTableCreate(p3, 0, allocator)
	p2[2].Set(pmm.Frame(100), FlagHugePage)
	assertPanics(t, "not aligned", func() {
		s.Translate(pageForIndices(0, 0, 2, 0).StartAddress())
	})
}

// The root table's last slot points back at the root, so the last page of
// the address space resolves to the root table itself, one level of
// indirection per walk step.
func TestRecursiveSlotTranslates(t *testing.T) {
	s, _ := testSpace(t)

	got, ok := s.Translate(0xffff_ffff_ffff_f000)
	if !ok {
		t.Fatal("recursive slot page does not translate")
	}
	if want := s.Root().Address(); got != want {
		t.Errorf("Translate: got %#x, want root table at %#x", uint64(got), uint64(want))
	}
}

// Mapping the page that addresses the root table through the recursive
// slot must fail the occupied-slot check, not silently rewire the root.
func TestMapToRecursiveSlotPanics(t *testing.T) {
	s, allocator := testSpace(t)
	assertPanics(t, "already mapped", func() {
		s.MapTo(pageForIndices(511, 511, 511, 511), pmm.Frame(0x10), FlagWriteable, allocator)
	})
}

func TestMapOutOfMemoryPanics(t *testing.T) {
	arena, err := physmem.New(4 * mem.PageSize)
	if err != nil {
		t.Fatalf("physmem.New: %v", err)
	}
	t.Cleanup(func() { arena.Close() })

	// Two usable frames: the root consumes one, Map's target frame
	// allocation consumes the other, leaving none for the tables.
	allocator := pmm.NewAreaAllocator(0, 0, 0, 0, []pmm.Region{{Base: 0, Length: 3 * mem.PageSize}})
	s := New(arena, allocator)
	assertPanics(t, "no frames available", func() {
		s.Map(PageContaining(0x1000), FlagWriteable, allocator)
	})

	// And with the allocator fully drained the target allocation itself
	// fails first.
	assertPanics(t, "out of memory", func() {
		s.Map(PageContaining(0x2000), FlagWriteable, allocator)
	})
}

func TestStats(t *testing.T) {
	s, allocator := testSpace(t)
	if got, want := s.Stats(), (Stats{TablesCreated: 1}); got != want {
		t.Fatalf("fresh space stats: got %+v, want %+v", got, want)
	}

	page := PageContaining(0x1000)
	s.Map(page, FlagWriteable, allocator)

	s.Translate(page.StartAddress())     // walk, fills the cache
	s.Translate(page.StartAddress() + 1) // served from the cache
	s.Unmap(page, allocator)             // checks the mapping through the cache

	want := Stats{
		TablesCreated: 4,
		Mapped:        1,
		Unmapped:      1,
		TLBHits:       2,
		TLBMisses:     1,
	}
	if got := s.Stats(); got != want {
		t.Errorf("stats: got %+v, want %+v", got, want)
	}
}

func TestWalk(t *testing.T) {
	s, allocator := testSpace(t)

	s.MapTo(PageContaining(0x1000), pmm.Frame(0x10), FlagWriteable, allocator)
	s.MapTo(PageContaining(0xffff_8000_0000_0000), pmm.Frame(0x30), FlagNoExecute, allocator)
	s.MapTo(PageContaining(mem.VirtualAddress(42*mem.Gb)), pmm.Frame(0x20), FlagWriteable, allocator)

	// One huge mapping, installed by hand.
	p4 := s.tableAt(s.root)
	p3, _ := s.nextTable(p4, 0)
	p2, _ := s.nextTable(p3, 0)
	p2[5].Set(pmm.Frame(3*entryCount), FlagWriteable|FlagHugePage)

	var got []Mapping
	s.Walk(func(m Mapping) bool {
		got = append(got, m)
		return true
	})

	want := []Mapping{
		{Page: PageContaining(0x1000), Frame: 0x10, Flags: FlagPresent | FlagWriteable, Size: mem.PageSize},
		{Page: pageForIndices(0, 0, 5, 0), Frame: 3 * entryCount, Flags: FlagPresent | FlagWriteable | FlagHugePage, Size: 2 * mem.Mb},
		{Page: PageContaining(mem.VirtualAddress(42 * mem.Gb)), Frame: 0x20, Flags: FlagPresent | FlagWriteable, Size: mem.PageSize},
		{Page: PageContaining(0xffff_8000_0000_0000), Frame: 0x30, Flags: FlagPresent | FlagNoExecute, Size: mem.PageSize},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk mappings mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	s, allocator := testSpace(t)
	s.MapTo(PageContaining(0x1000), pmm.Frame(0x10), FlagWriteable, allocator)
	s.MapTo(PageContaining(0x2000), pmm.Frame(0x20), FlagWriteable, allocator)

	var visited int
	s.Walk(func(Mapping) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited %d mappings, want 1", visited)
	}
}
