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

// Package physmem backs the physical address range with process-local
// memory, so that frames handed out by an allocator are real, addressable
// storage.
package physmem

import (
	"fmt"

	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

// Arena is a contiguous image of the physical address range [0, Size()).
// Frame contents, page tables included, live inside it.
type Arena struct {
	bytes []byte
	size  mem.Size
}

// New returns an arena covering at least the requested size, rounded up to
// a whole number of frames.
func New(size mem.Size) (*Arena, error) {
	if size == 0 {
		return nil, fmt.Errorf("arena size must not be zero")
	}
	size = (size + mem.PageSize - 1) &^ (mem.PageSize - 1)
	bytes, err := reserve(uintptr(size))
	if err != nil {
		return nil, fmt.Errorf("reserving %d arena bytes: %w", size, err)
	}
	return &Arena{bytes: bytes, size: size}, nil
}

// Size returns the number of bytes of physical memory the arena models.
func (a *Arena) Size() mem.Size {
	return a.size
}

// Frames returns the number of frames the arena models.
func (a *Arena) Frames() uint64 {
	return uint64(a.size / mem.PageSize)
}

// Contains returns whether the frame lies inside the arena.
func (a *Arena) Contains(frame pmm.Frame) bool {
	return uint64(frame) < a.Frames()
}

// Slice returns the frame's backing bytes. Asking for a frame outside the
// arena is a contract violation.
func (a *Arena) Slice(frame pmm.Frame) []byte {
	if !a.Contains(frame) {
		panic(fmt.Sprintf("physmem: frame %#x is outside the arena of %d frames", uint64(frame), a.Frames()))
	}
	start := uint64(frame) << mem.PageShift
	end := start + uint64(mem.PageSize)
	return a.bytes[start:end:end]
}

// Close releases the arena's backing memory. The arena must not be used
// afterwards.
func (a *Arena) Close() error {
	if a.bytes == nil {
		return nil
	}
	err := release(a.bytes)
	a.bytes = nil
	return err
}
