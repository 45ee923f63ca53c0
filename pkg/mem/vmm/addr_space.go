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
	"fmt"

	"github.com/basaltkernel/basalt/pkg/log"
	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/physmem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

// Stats counts the work an address space has performed.
type Stats struct {
	// TablesCreated is the number of page tables allocated, the root
	// included.
	TablesCreated uint64

	// Mapped and Unmapped count installed and removed page mappings.
	Mapped   uint64
	Unmapped uint64

	// TLBHits and TLBMisses count translations served from the
	// translation cache and translations that had to walk the tables.
	TLBHits   uint64
	TLBMisses uint64
}

// AddressSpace is the exclusive owner of one page table hierarchy. All
// mutation goes through it; it is not safe for concurrent use.
//
// Tables are stored inside the arena, so the child of any table entry is
// reachable as plain memory. The root table's recursive slot points back at
// the root, and mapping code keeps it that way: installing a mapping over
// the slot trips the double-map check.
type AddressSpace struct {
	arena *physmem.Arena
	root  pmm.Frame

	// tlb caches page translations the way the hardware translation
	// cache would. Removing a mapping invalidates the page's entry
	// before the removal is considered complete.
	tlb map[Page]mem.PhysicalAddress

	stats Stats
}

// New allocates a zeroed root table from the allocator and returns an
// address space owning it. Exhaustion while allocating the root is a
// contract violation, as no mapping could ever be installed.
func New(arena *physmem.Arena, allocator pmm.FrameAllocator) *AddressSpace {
	root, ok := allocator.AllocateFrame()
	if !ok {
		panic("vmm: no frames available for the root table")
	}
	s := &AddressSpace{
		arena: arena,
		root:  root,
		tlb:   make(map[Page]mem.PhysicalAddress),
	}
	p4 := s.tableAt(root)
	p4.Zero()
	p4[recursiveSlot].Set(root, FlagWriteable)
	s.stats.TablesCreated++
	log.Debugf("vmm: address space rooted at frame %#x", uint64(root))
	return s
}

// Root returns the frame holding the level 4 table.
func (s *AddressSpace) Root() pmm.Frame {
	return s.root
}

// Stats returns a snapshot of the address space counters.
func (s *AddressSpace) Stats() Stats {
	return s.stats
}

// Translate resolves a virtual address to the physical address it is
// mapped to, or false if no mapping exists. Huge mappings at levels 3 and
// 2 resolve like the hardware would resolve them.
func (s *AddressSpace) Translate(addr mem.VirtualAddress) (mem.PhysicalAddress, bool) {
	offset := mem.PhysicalAddress(addr.PageOffset())
	page := PageContaining(addr)
	if base, ok := s.tlb[page]; ok {
		s.stats.TLBHits++
		return base + offset, true
	}
	s.stats.TLBMisses++
	frame, ok := s.translatePage(page)
	if !ok {
		return 0, false
	}
	s.tlb[page] = frame.Address()
	return frame.Address() + offset, true
}

// translatePage walks the hierarchy without creating tables and returns
// the frame backing the page.
func (s *AddressSpace) translatePage(page Page) (pmm.Frame, bool) {
	p3, ok := s.nextTable(s.tableAt(s.root), page.p4Index())
	if !ok {
		return 0, false
	}
	p2, ok := s.nextTable(p3, page.p3Index())
	if !ok {
		return s.hugeFrame(&p3[page.p3Index()], page, entryCount*entryCount)
	}
	p1, ok := s.nextTable(p2, page.p2Index())
	if !ok {
		return s.hugeFrame(&p2[page.p2Index()], page, entryCount)
	}
	return p1[page.p1Index()].PointedFrame()
}

// hugeFrame resolves a page against a huge entry covering hugeFrames
// frames. A huge frame that is not aligned to its own size is a contract
// violation: it cannot come from correct mapping code, only from a broken
// loader or stomped table memory.
func (s *AddressSpace) hugeFrame(entry *Entry, page Page, hugeFrames int) (pmm.Frame, bool) {
	start, ok := entry.PointedFrame()
	if !ok || entry.Flags()&FlagHugePage == 0 {
		return 0, false
	}
	if uint64(start)%uint64(hugeFrames) != 0 {
		panic(fmt.Sprintf("vmm: huge page frame %#x is not aligned to %d frames", uint64(start), hugeFrames))
	}
	if hugeFrames == entryCount*entryCount {
		return start + pmm.Frame(page.p2Index()*entryCount+page.p1Index()), true
	}
	return start + pmm.Frame(page.p1Index()), true
}

// MapTo maps the page to the given frame, creating intermediate tables as
// needed. Mapping an already mapped page is a contract violation.
func (s *AddressSpace) MapTo(page Page, frame pmm.Frame, flags EntryFlags, allocator pmm.FrameAllocator) {
	p4 := s.tableAt(s.root)
	p3 := s.nextTableCreate(p4, page.p4Index(), allocator)
	p2 := s.nextTableCreate(p3, page.p3Index(), allocator)
	p1 := s.nextTableCreate(p2, page.p2Index(), allocator)
	if !p1[page.p1Index()].IsUnused() {
		panic(fmt.Sprintf("vmm: page %#x is already mapped", uint64(page.StartAddress())))
	}
	p1[page.p1Index()].Set(frame, flags)
	s.stats.Mapped++
	if log.IsLogging(log.Debug) {
		log.Debugf("vmm: mapped page %#x to frame %#x (%v)", uint64(page.StartAddress()), uint64(frame), flags)
	}
}

// Map maps the page to a freshly allocated frame. Exhaustion here is a
// contract violation: callers that can tolerate running out of memory must
// check the allocator first.
func (s *AddressSpace) Map(page Page, flags EntryFlags, allocator pmm.FrameAllocator) {
	frame, ok := allocator.AllocateFrame()
	if !ok {
		panic("vmm: out of memory")
	}
	s.MapTo(page, frame, flags, allocator)
}

// IdentityMap maps the page at the frame's own address to that frame, for
// hardware structures that must stay at their physical address.
func (s *AddressSpace) IdentityMap(frame pmm.Frame, flags EntryFlags, allocator pmm.FrameAllocator) {
	page := PageContaining(mem.VirtualAddress(frame.Address()))
	s.MapTo(page, frame, flags, allocator)
}

// Unmap removes the page's mapping and synchronously invalidates its
// cached translation. Unmapping a page that is not mapped, or one covered
// by a huge mapping, is a contract violation.
//
// The backing frame is not handed back to the allocator and now-empty
// intermediate tables are not reclaimed; the allocator parameter is kept
// for the reclaim path.
func (s *AddressSpace) Unmap(page Page, allocator pmm.FrameAllocator) {
	if _, ok := s.Translate(page.StartAddress()); !ok {
		panic(fmt.Sprintf("vmm: page %#x is not mapped", uint64(page.StartAddress())))
	}

	p3, ok := s.nextTable(s.tableAt(s.root), page.p4Index())
	var p2 *Table
	if ok {
		p2, ok = s.nextTable(p3, page.p3Index())
	}
	var p1 *Table
	if ok {
		p1, ok = s.nextTable(p2, page.p2Index())
	}
	if !ok {
		// Translate resolved the page, so the walk can only have
		// stopped at a huge entry.
		panic("vmm: mapping code does not support huge pages")
	}

	if _, ok := p1[page.p1Index()].PointedFrame(); !ok {
		panic(fmt.Sprintf("vmm: page %#x is not mapped", uint64(page.StartAddress())))
	}
	p1[page.p1Index()].SetUnused()
	s.invalidate(page)
	s.stats.Unmapped++
	// TODO: return the frame to the allocator and free the p1/p2/p3
	// tables once they are empty.
}

// invalidate drops the page's cached translation. It must run before a
// removed mapping is considered retired.
func (s *AddressSpace) invalidate(page Page) {
	delete(s.tlb, page)
}

// nextTable returns the table the entry at index points at, or false if
// the entry is non-present or maps a huge page.
func (s *AddressSpace) nextTable(t *Table, index int) (*Table, bool) {
	entry := t[index]
	frame, ok := entry.PointedFrame()
	if !ok || entry.Flags()&FlagHugePage != 0 {
		return nil, false
	}
	return s.tableAt(frame), true
}

// nextTableCreate returns the table the entry at index points at,
// allocating, installing and zeroing it first if the entry is unused.
// Exhaustion during table creation is a contract violation, like in Map.
func (s *AddressSpace) nextTableCreate(t *Table, index int, allocator pmm.FrameAllocator) *Table {
	if child, ok := s.nextTable(t, index); ok {
		return child
	}
	if t[index].Flags()&FlagHugePage != 0 {
		panic("vmm: mapping code does not support huge pages")
	}
	frame, ok := allocator.AllocateFrame()
	if !ok {
		panic("vmm: no frames available")
	}
	t[index].Set(frame, FlagWriteable)
	child := s.tableAt(frame)
	child.Zero()
	s.stats.TablesCreated++
	return child
}
