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
	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

// Mapping describes one installed translation. Huge mappings are reported
// as a single Mapping covering their whole range.
type Mapping struct {
	Page  Page
	Frame pmm.Frame
	Flags EntryFlags
	Size  mem.Size
}

// Walk visits every mapping in the address space in ascending page order
// and stops early if visit returns false. The root table's recursive slot
// is bookkeeping, not a mapping, and is not visited.
func (s *AddressSpace) Walk(visit func(Mapping) bool) {
	p4 := s.tableAt(s.root)
	for i4 := 0; i4 < entryCount; i4++ {
		if i4 == recursiveSlot {
			continue
		}
		p3, ok := s.nextTable(p4, i4)
		if !ok {
			continue
		}
		for i3 := 0; i3 < entryCount; i3++ {
			if frame, huge := s.hugeMapping(&p3[i3]); huge {
				if !visit(Mapping{
					Page:  pageForIndices(i4, i3, 0, 0),
					Frame: frame,
					Flags: p3[i3].Flags(),
					Size:  mem.Gb,
				}) {
					return
				}
				continue
			}
			p2, ok := s.nextTable(p3, i3)
			if !ok {
				continue
			}
			for i2 := 0; i2 < entryCount; i2++ {
				if frame, huge := s.hugeMapping(&p2[i2]); huge {
					if !visit(Mapping{
						Page:  pageForIndices(i4, i3, i2, 0),
						Frame: frame,
						Flags: p2[i2].Flags(),
						Size:  2 * mem.Mb,
					}) {
						return
					}
					continue
				}
				p1, ok := s.nextTable(p2, i2)
				if !ok {
					continue
				}
				for i1 := 0; i1 < entryCount; i1++ {
					frame, ok := p1[i1].PointedFrame()
					if !ok {
						continue
					}
					if !visit(Mapping{
						Page:  pageForIndices(i4, i3, i2, i1),
						Frame: frame,
						Flags: p1[i1].Flags(),
						Size:  mem.PageSize,
					}) {
						return
					}
				}
			}
		}
	}
}

// hugeMapping reports whether the entry maps a huge page and the frame it
// points at.
func (s *AddressSpace) hugeMapping(entry *Entry) (pmm.Frame, bool) {
	frame, ok := entry.PointedFrame()
	if !ok || entry.Flags()&FlagHugePage == 0 {
		return 0, false
	}
	return frame, true
}
