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

// Package mem provides the units and address types shared by the physical
// and virtual memory managers.
package mem

import "fmt"

// Size represents an amount of memory in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

const (
	// PageShift is the number of address bits covered by one page.
	PageShift = 12

	// PageSize is the size of a page frame and of a virtual page.
	PageSize = Size(1 << PageShift)
)

// String formats the size with the largest unit that divides it evenly.
func (s Size) String() string {
	switch {
	case s != 0 && s%Gb == 0:
		return fmt.Sprintf("%dG", s/Gb)
	case s != 0 && s%Mb == 0:
		return fmt.Sprintf("%dM", s/Mb)
	case s != 0 && s%Kb == 0:
		return fmt.Sprintf("%dK", s/Kb)
	}
	return fmt.Sprintf("%dB", uint64(s))
}

// PhysicalAddress is an address into physical memory.
type PhysicalAddress uint64

// VirtualAddress is an address into a virtual address space.
type VirtualAddress uint64

// Boundaries of the canonical hole. Virtual addresses inside
// [lowerHalfMax, upperHalfMin) are not sign extended and cannot be issued
// by mapping hardware with 48-bit addressing.
const (
	lowerHalfMax VirtualAddress = 0x0000_8000_0000_0000
	upperHalfMin VirtualAddress = 0xffff_8000_0000_0000
)

// IsCanonical returns whether the address is sign extended, i.e. whether it
// lies in the lower or upper canonical half of the address space.
func (v VirtualAddress) IsCanonical() bool {
	return v < lowerHalfMax || v >= upperHalfMin
}

// PageOffset returns the address offset into its containing page.
func (v VirtualAddress) PageOffset() Size {
	return Size(v) % PageSize
}
