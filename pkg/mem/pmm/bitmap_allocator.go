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
	"fmt"

	"github.com/basaltkernel/basalt/pkg/bitmap"
	"github.com/basaltkernel/basalt/pkg/mem"
)

// framePool tracks the allocation state of the frames in one memory region.
// A set bit marks an allocated (or excluded) frame.
type framePool struct {
	first Frame
	last  Frame
	used  bitmap.Bitmap
}

// BitmapAllocator hands out frames from the boot-reported usable memory
// regions, tracking each frame with one bit so that deallocated frames
// become allocatable again.
//
// It takes the same construction inputs as AreaAllocator and honors the
// same exclusion windows, but removes the bump allocator's no-reclaim
// limitation.
type BitmapAllocator struct {
	pools []framePool
}

var _ FrameAllocator = (*BitmapAllocator)(nil)

// NewBitmapAllocator returns an allocator serving the given regions, with
// the kernel image window [kernelStart, kernelEnd] and the boot information
// window [bootInfoStart, bootInfoEnd] pre-marked as allocated.
func NewBitmapAllocator(kernelStart, kernelEnd, bootInfoStart, bootInfoEnd mem.PhysicalAddress, regions []Region) *BitmapAllocator {
	b := &BitmapAllocator{
		pools: make([]framePool, 0, len(regions)),
	}
	for _, r := range regions {
		pool := framePool{
			first: r.FirstFrame(),
			last:  r.LastFrame(),
			used:  bitmap.New(uint32(r.LastFrame() - r.FirstFrame() + 1)),
		}
		pool.markRange(FrameContaining(kernelStart), FrameContaining(kernelEnd))
		pool.markRange(FrameContaining(bootInfoStart), FrameContaining(bootInfoEnd))
		b.pools = append(b.pools, pool)
	}
	return b
}

// AllocateFrame implements FrameAllocator.AllocateFrame.
func (b *BitmapAllocator) AllocateFrame() (Frame, bool) {
	for i := range b.pools {
		pool := &b.pools[i]
		bit, err := pool.used.FirstZero(0)
		if err != nil {
			continue
		}
		frame := pool.first + Frame(bit)
		if frame > pool.last {
			// Only the bitmap's round-up padding is left.
			continue
		}
		pool.used.Add(bit)
		return frame, true
	}
	return 0, false
}

// DeallocateFrame implements FrameAllocator.DeallocateFrame. The frame
// becomes allocatable again. Handing back a frame that lies outside every
// usable region is a contract violation.
func (b *BitmapAllocator) DeallocateFrame(frame Frame) {
	for i := range b.pools {
		pool := &b.pools[i]
		if frame < pool.first || frame > pool.last {
			continue
		}
		pool.used.Remove(uint32(frame - pool.first))
		return
	}
	panic(fmt.Sprintf("pmm: deallocated frame %#x is outside every usable memory region", frame.Address()))
}

// FreeFrames returns the number of frames currently available.
func (b *BitmapAllocator) FreeFrames() uint64 {
	var free uint64
	for i := range b.pools {
		pool := &b.pools[i]
		total := uint64(pool.last-pool.first) + 1
		used := uint64(pool.used.GetNumOnes())
		free += total - used
	}
	return free
}

// markRange marks the frames of [lo, hi] that fall inside the pool as used.
func (p *framePool) markRange(lo, hi Frame) {
	if hi < p.first || lo > p.last {
		return
	}
	if lo < p.first {
		lo = p.first
	}
	if hi > p.last {
		hi = p.last
	}
	for f := lo; f <= hi; f++ {
		p.used.Add(uint32(f - p.first))
	}
}
