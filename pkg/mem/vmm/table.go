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

const (
	// entryCount is the number of entries in a table at every level.
	entryCount = 512

	// recursiveSlot is the level 4 entry that points back at the level 4
	// table itself, keeping every table reachable as plain memory.
	recursiveSlot = entryCount - 1
)

// Table is one page table: 512 entries filling exactly one frame. Level 4,
// 3 and 2 tables point at tables of the next level down; level 1 entries
// point at data frames.
type Table [entryCount]Entry

// Zero clears every entry. A freshly installed table must be zeroed before
// use, or stale frame contents would be read as live mappings.
func (t *Table) Zero() {
	for i := range t {
		t[i].SetUnused()
	}
}
