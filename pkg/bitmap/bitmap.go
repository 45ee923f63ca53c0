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

// Package bitmap provides a dense bitmap keyed by uint32.
package bitmap

import (
	"fmt"
	"math"
	"math/bits"
)

// MaxBitEntryLimit is the upper limit on how many bit entries a Bitmap
// supports.
const MaxBitEntryLimit uint32 = math.MaxInt32

// Bitmap implements an efficient set of uint32 values.
type Bitmap struct {
	// numOnes is the number of set bits.
	numOnes uint32

	// bitBlock holds the bits, 64 entries per element.
	bitBlock []uint64
}

// New creates a new empty Bitmap able to hold at least size bits.
func New(size uint32) Bitmap {
	return Bitmap{bitBlock: make([]uint64, (size+63)/64)}
}

// IsEmpty returns whether no bit is set.
func (b *Bitmap) IsEmpty() bool {
	return b.numOnes == 0
}

// Size returns the total number of bits the Bitmap holds.
func (b *Bitmap) Size() int {
	return len(b.bitBlock) * 64
}

// Minimum returns the smallest set bit, or MaxBitEntryLimit if none is set.
func (b *Bitmap) Minimum() uint32 {
	for i := 0; i < len(b.bitBlock); i++ {
		if w := b.bitBlock[i]; w != 0 {
			return uint32(bits.TrailingZeros64(w) + i*64)
		}
	}
	return MaxBitEntryLimit
}

// Maximum returns the largest set bit, or zero if none is set.
func (b *Bitmap) Maximum() uint32 {
	for i := len(b.bitBlock) - 1; i >= 0; i-- {
		if w := b.bitBlock[i]; w != 0 {
			return uint32(i*64 + 63 - bits.LeadingZeros64(w))
		}
	}
	return 0
}

// FirstZero returns the first unset bit at or after start.
func (b *Bitmap) FirstZero(start uint32) (uint32, error) {
	i, nbit := int(start/64), start%64
	n := len(b.bitBlock)
	if i >= n {
		return MaxBitEntryLimit, fmt.Errorf("start %d exceeds bitmap size %d", start, b.Size())
	}
	w := b.bitBlock[i] | ((1 << nbit) - 1)
	for {
		if w != ^uint64(0) {
			return uint32(bits.TrailingZeros64(^w) + i*64), nil
		}
		i++
		if i == n {
			return MaxBitEntryLimit, fmt.Errorf("bitmap has no unset bits at or after %d", start)
		}
		w = b.bitBlock[i]
	}
}

// FirstOne returns the first set bit at or after start.
func (b *Bitmap) FirstOne(start uint32) (uint32, error) {
	i, nbit := int(start/64), start%64
	n := len(b.bitBlock)
	if i >= n {
		return MaxBitEntryLimit, fmt.Errorf("start %d exceeds bitmap size %d", start, b.Size())
	}
	w := b.bitBlock[i] & (^uint64(0) << nbit)
	for {
		if w != 0 {
			return uint32(bits.TrailingZeros64(w) + i*64), nil
		}
		i++
		if i == n {
			return MaxBitEntryLimit, fmt.Errorf("bitmap has no set bits at or after %d", start)
		}
		w = b.bitBlock[i]
	}
}

// Add sets bit i, growing the bitmap if needed.
func (b *Bitmap) Add(i uint32) {
	blockNum, mask := i/64, uint64(1)<<(i%64)
	if x, y := int(blockNum), len(b.bitBlock); x >= y {
		b.bitBlock = append(b.bitBlock, make([]uint64, x-y+1)...)
	}
	oldBlock := b.bitBlock[blockNum]
	newBlock := oldBlock | mask
	if oldBlock != newBlock {
		b.bitBlock[blockNum] = newBlock
		b.numOnes++
	}
}

// Remove clears bit i.
func (b *Bitmap) Remove(i uint32) {
	blockNum, mask := i/64, uint64(1)<<(i%64)
	oldBlock := b.bitBlock[blockNum]
	newBlock := oldBlock &^ mask
	if oldBlock != newBlock {
		b.bitBlock[blockNum] = newBlock
		b.numOnes--
	}
}

// Contains returns whether bit i is set.
func (b *Bitmap) Contains(i uint32) bool {
	blockNum := i / 64
	if int(blockNum) >= len(b.bitBlock) {
		return false
	}
	return b.bitBlock[blockNum]&(uint64(1)<<(i%64)) != 0
}

// Clone returns a copy of the Bitmap.
func (b *Bitmap) Clone() Bitmap {
	clone := Bitmap{b.numOnes, make([]uint64, len(b.bitBlock))}
	copy(clone.bitBlock, b.bitBlock)
	return clone
}

// ToSlice returns the set bits in ascending order.
func (b *Bitmap) ToSlice() []uint32 {
	res := make([]uint32, 0, b.numOnes)
	base := 0
	for i := 0; i < len(b.bitBlock); i++ {
		w := b.bitBlock[i]
		for w != 0 {
			// Extract the lowest set bit.
			low := w & -w
			res = append(res, uint32(base+bits.OnesCount64(low-1)))
			w ^= low
		}
		base += 64
	}
	return res
}

// GetNumOnes returns the number of set bits.
func (b *Bitmap) GetNumOnes() uint32 {
	return b.numOnes
}
