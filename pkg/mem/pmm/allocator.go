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

package pmm

import (
	"github.com/basaltkernel/basalt/pkg/mem"
)

// FrameAllocator hands out free physical frames.
//
// Implementations are not safe for concurrent use; early boot drives all
// allocations from a single owner.
type FrameAllocator interface {
	// AllocateFrame returns a frame that is not in use by anything else,
	// or false once physical memory is exhausted. Exhaustion is an
	// expected outcome that callers must handle.
	AllocateFrame() (Frame, bool)

	// DeallocateFrame hands a previously allocated frame back to the
	// allocator. Implementations may accept the frame without extending
	// their capacity; callers must not assume the memory is reusable.
	DeallocateFrame(Frame)
}

// Region describes one contiguous range of usable physical memory as
// reported by the boot loader. Regions are non-empty and do not overlap.
type Region struct {
	Base   mem.PhysicalAddress
	Length mem.Size
}

// FirstFrame returns the frame containing the first byte of the region.
func (r Region) FirstFrame() Frame {
	return FrameContaining(r.Base)
}

// LastFrame returns the frame containing the last byte of the region.
func (r Region) LastFrame() Frame {
	return FrameContaining(r.Base + mem.PhysicalAddress(r.Length) - 1)
}
