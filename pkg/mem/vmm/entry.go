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
	"strings"

	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

// EntryFlags is the set of status and permission bits of a page table
// entry. The bit positions are dictated by the hardware page table format
// and must not change.
type EntryFlags uint64

const (
	// FlagPresent marks the entry as live. It is forced on by Entry.Set.
	FlagPresent EntryFlags = 1 << 0

	// FlagWriteable permits writes through this entry.
	FlagWriteable EntryFlags = 1 << 1

	// FlagUserAccessible permits user-mode accesses through this entry.
	FlagUserAccessible EntryFlags = 1 << 2

	// FlagWriteThrough selects write-through caching for the mapped
	// memory.
	FlagWriteThrough EntryFlags = 1 << 3

	// FlagNoCache disables caching for the mapped memory.
	FlagNoCache EntryFlags = 1 << 4

	// FlagAccessed is set by the hardware when the entry is used in a
	// translation.
	FlagAccessed EntryFlags = 1 << 5

	// FlagDirty is set by the hardware when the mapped page is written.
	FlagDirty EntryFlags = 1 << 6

	// FlagHugePage makes a level 3 entry map a 1 GiB page and a level 2
	// entry a 2 MiB page. It must not appear at levels 4 and 1.
	FlagHugePage EntryFlags = 1 << 7

	// FlagGlobal keeps the translation cached across address space
	// switches.
	FlagGlobal EntryFlags = 1 << 8

	// FlagNoExecute forbids instruction fetches through this entry.
	FlagNoExecute EntryFlags = 1 << 63
)

// flagsMask covers every architected flag bit.
const flagsMask = FlagPresent | FlagWriteable | FlagUserAccessible |
	FlagWriteThrough | FlagNoCache | FlagAccessed | FlagDirty |
	FlagHugePage | FlagGlobal | FlagNoExecute

// addressMask covers the frame address bits 12-51 of an entry.
const addressMask uint64 = 0x000f_ffff_ffff_f000

var flagNames = []struct {
	flag EntryFlags
	name string
}{
	{FlagPresent, "present"},
	{FlagWriteable, "writeable"},
	{FlagUserAccessible, "user_accessible"},
	{FlagWriteThrough, "write_through"},
	{FlagNoCache, "no_cache"},
	{FlagAccessed, "accessed"},
	{FlagDirty, "dirty"},
	{FlagHugePage, "huge_page"},
	{FlagGlobal, "global"},
	{FlagNoExecute, "no_execute"},
}

// String returns the set flags joined by "|", or "clear" for the empty set.
func (f EntryFlags) String() string {
	if f == 0 {
		return "clear"
	}
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseFlags builds an EntryFlags from flag names as produced by String.
func ParseFlags(names []string) (EntryFlags, error) {
	var flags EntryFlags
next:
	for _, name := range names {
		for _, fn := range flagNames {
			if name == fn.name {
				flags |= fn.flag
				continue next
			}
		}
		return 0, fmt.Errorf("unknown entry flag %q", name)
	}
	return flags, nil
}

// Entry is one hardware page table entry: a frame address in bits 12-51
// and flag bits around it. The zero value is the unused entry, which also
// reads as non-present.
type Entry uint64

// IsUnused returns whether the entry holds the all-zero pattern.
func (e Entry) IsUnused() bool {
	return e == 0
}

// SetUnused resets the entry to the all-zero pattern.
func (e *Entry) SetUnused() {
	*e = 0
}

// Flags returns the entry's flag bits.
func (e Entry) Flags() EntryFlags {
	return EntryFlags(e) & flagsMask
}

// PointedFrame returns the frame the entry points at. A non-present entry
// carries no meaningful address bits, so false is returned.
func (e Entry) PointedFrame() (pmm.Frame, bool) {
	if e.Flags()&FlagPresent == 0 {
		return 0, false
	}
	return pmm.FrameContaining(mem.PhysicalAddress(uint64(e) & addressMask)), true
}

// Set points the entry at the frame with the given flags, forcing
// FlagPresent on. A frame whose address does not fit the address bits is a
// contract violation.
func (e *Entry) Set(frame pmm.Frame, flags EntryFlags) {
	if uint64(frame.Address())&^addressMask != 0 {
		panic(fmt.Sprintf("vmm: frame address %#x does not fit the entry address bits", uint64(frame.Address())))
	}
	*e = Entry(uint64(frame.Address()) | uint64(flags|FlagPresent))
}
