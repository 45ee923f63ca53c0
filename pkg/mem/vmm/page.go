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

// Package vmm builds and walks the four-level page table hierarchy mapping
// virtual pages to physical frames.
package vmm

import (
	"fmt"

	"github.com/basaltkernel/basalt/pkg/mem"
)

// Page identifies one page-sized block of virtual address space by index.
type Page uint64

// PageContaining returns the page that the virtual address belongs to.
// Handing in a non-canonical address is a contract violation.
func PageContaining(addr mem.VirtualAddress) Page {
	if !addr.IsCanonical() {
		panic(fmt.Sprintf("vmm: address %#x is not canonical", uint64(addr)))
	}
	return Page(addr >> mem.PageShift)
}

// StartAddress returns the virtual address of the first byte of the page.
func (p Page) StartAddress() mem.VirtualAddress {
	return mem.VirtualAddress(p) << mem.PageShift
}

// The page number selects one of 512 slots at each of the four table
// levels, nine bits per level.

func (p Page) p4Index() int {
	return int((p >> 27) & 0o777)
}

func (p Page) p3Index() int {
	return int((p >> 18) & 0o777)
}

func (p Page) p2Index() int {
	return int((p >> 9) & 0o777)
}

func (p Page) p1Index() int {
	return int(p & 0o777)
}

// pageForIndices is the inverse of the index accessors. Indices selecting
// the upper half of the address space are sign extended back into a
// canonical page number.
func pageForIndices(p4, p3, p2, p1 int) Page {
	n := uint64(p4)<<27 | uint64(p3)<<18 | uint64(p2)<<9 | uint64(p1)
	if p4 >= entryCount/2 {
		n |= 0xffff << 36
	}
	return Page(n)
}
