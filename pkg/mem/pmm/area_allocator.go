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
	"time"

	"github.com/basaltkernel/basalt/pkg/log"
	"github.com/basaltkernel/basalt/pkg/mem"
)

// AreaAllocator hands out frames from the boot-reported usable memory
// regions in ascending order, skipping the frames occupied by the kernel
// image and by the boot information structure.
//
// The allocator is a monotonic bump allocator: a frame that has been passed
// over is never revisited, so DeallocateFrame cannot reclaim capacity. The
// frames consumed by the exclusion windows are skipped at frame granularity,
// with both window ends treated inclusively.
type AreaAllocator struct {
	// next is the lowest frame that has not been considered yet.
	next Frame

	// current is the region frames are currently drawn from. It is nil
	// once every region has been consumed.
	current *Region

	regions []Region

	kernelStart   Frame
	kernelEnd     Frame
	bootInfoStart Frame
	bootInfoEnd   Frame

	// released counts frames handed back through DeallocateFrame.
	released uint64

	releaseLog log.Logger
}

var _ FrameAllocator = (*AreaAllocator)(nil)

// NewAreaAllocator returns an allocator serving the given regions, never
// returning a frame that overlaps the kernel image window
// [kernelStart, kernelEnd] or the boot information window
// [bootInfoStart, bootInfoEnd].
func NewAreaAllocator(kernelStart, kernelEnd, bootInfoStart, bootInfoEnd mem.PhysicalAddress, regions []Region) *AreaAllocator {
	a := &AreaAllocator{
		next:          FrameContaining(0),
		regions:       regions,
		kernelStart:   FrameContaining(kernelStart),
		kernelEnd:     FrameContaining(kernelEnd),
		bootInfoStart: FrameContaining(bootInfoStart),
		bootInfoEnd:   FrameContaining(bootInfoEnd),
		releaseLog:    log.BasicRateLimitedLogger(30 * time.Second),
	}
	a.chooseNextRegion()
	return a
}

// AllocateFrame implements FrameAllocator.AllocateFrame.
func (a *AreaAllocator) AllocateFrame() (Frame, bool) {
	for a.current != nil {
		frame := a.next
		switch {
		case frame > a.current.LastFrame():
			// The current region is exhausted.
			a.chooseNextRegion()
		case frame >= a.kernelStart && frame <= a.kernelEnd:
			a.next = a.kernelEnd + 1
		case frame >= a.bootInfoStart && frame <= a.bootInfoEnd:
			a.next = a.bootInfoEnd + 1
		default:
			a.next++
			return frame, true
		}
	}
	return 0, false
}

// DeallocateFrame implements FrameAllocator.DeallocateFrame. The frame is
// accepted but its capacity is not reclaimed; see the type comment.
func (a *AreaAllocator) DeallocateFrame(frame Frame) {
	a.released++
	a.releaseLog.Debugf("pmm: dropping freed frame %#x, bump allocation does not reclaim", frame.Address())
}

// Released returns the number of frames handed back through
// DeallocateFrame since construction.
func (a *AreaAllocator) Released() uint64 {
	return a.released
}

// chooseNextRegion selects the lowest-based region that still contains a
// frame at or past the cursor, then clamps the cursor up to its first frame.
func (a *AreaAllocator) chooseNextRegion() {
	a.current = nil
	for i := range a.regions {
		r := &a.regions[i]
		if r.LastFrame() < a.next {
			continue
		}
		if a.current == nil || r.Base < a.current.Base {
			a.current = r
		}
	}
	if a.current == nil {
		log.Debugf("pmm: all memory regions consumed")
		return
	}
	if first := a.current.FirstFrame(); a.next < first {
		a.next = first
	}
	log.Debugf("pmm: drawing frames from the region at %#x", a.current.Base)
}
