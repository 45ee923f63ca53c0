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
	"unsafe"

	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

// tableAt reinterprets the frame's backing bytes as a page table. The
// arena hands out page-aligned frames, which satisfies the entry alignment.
func (s *AddressSpace) tableAt(frame pmm.Frame) *Table {
	bytes := s.arena.Slice(frame)
	return (*Table)(unsafe.Pointer(&bytes[0]))
}
