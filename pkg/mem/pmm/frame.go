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

// Package pmm tracks the allocation state of physical memory frames.
package pmm

import (
	"github.com/basaltkernel/basalt/pkg/mem"
)

// Frame identifies one page-sized block of physical memory by index.
// Frames are totally ordered by their index.
type Frame uint64

// FrameContaining returns the frame that the physical address belongs to.
func FrameContaining(addr mem.PhysicalAddress) Frame {
	return Frame(addr >> mem.PageShift)
}

// Address returns the physical address of the first byte of the frame.
func (f Frame) Address() mem.PhysicalAddress {
	return mem.PhysicalAddress(f) << mem.PageShift
}
