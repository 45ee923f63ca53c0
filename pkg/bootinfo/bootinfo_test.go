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

package bootinfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/basaltkernel/basalt/pkg/log"
	"github.com/basaltkernel/basalt/pkg/mem"
	"github.com/basaltkernel/basalt/pkg/mem/pmm"
)

const testLayout = `
kernel_start = 0x10000
kernel_end = 0x20000
boot_info_start = 0x20000
boot_info_end = 0x21000

[[area]]
base = 0x0
length = 0x100000
`

func writeLayout(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing layout: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	l, err := Load(writeLayout(t, testLayout))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &Layout{
		KernelStart:   0x10000,
		KernelEnd:     0x20000,
		BootInfoStart: 0x20000,
		BootInfoEnd:   0x21000,
		Areas:         []Area{{Base: 0, Length: 0x100000}},
	}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
	if got, want := l.TotalSize(), mem.Size(0x100000); got != want {
		t.Errorf("TotalSize: got %#x, want %#x", uint64(got), uint64(want))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	area := Area{Base: 0, Length: 0x1000}
	for _, tc := range []struct {
		name    string
		layout  Layout
		wantErr string
	}{
		{
			name:   "valid",
			layout: Layout{KernelEnd: 0x100, Areas: []Area{area}},
		},
		{
			name:   "valid unsorted areas",
			layout: Layout{Areas: []Area{{Base: 0x2000, Length: 0x1000}, area}},
		},
		{
			name:    "kernel range inverted",
			layout:  Layout{KernelStart: 0x200, KernelEnd: 0x100, Areas: []Area{area}},
			wantErr: "ends before it starts",
		},
		{
			name:    "boot info range inverted",
			layout:  Layout{BootInfoStart: 0x200, BootInfoEnd: 0x100, Areas: []Area{area}},
			wantErr: "ends before it starts",
		},
		{
			name:    "no areas",
			layout:  Layout{},
			wantErr: "no memory areas",
		},
		{
			name:    "zero length area",
			layout:  Layout{Areas: []Area{area, {Base: 0x2000, Length: 0}}},
			wantErr: "zero length",
		},
		{
			name:    "overlapping areas",
			layout:  Layout{Areas: []Area{{Base: 0, Length: 0x2000}, {Base: 0x1000, Length: 0x1000}}},
			wantErr: "overlaps",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.layout.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate succeeded, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate: error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestRegions(t *testing.T) {
	l := Layout{Areas: []Area{
		{Base: 0x1000, Length: 0x2000},
		{Base: 0x8000, Length: 0x1000},
	}}
	want := []pmm.Region{
		{Base: 0x1000, Length: 0x2000},
		{Base: 0x8000, Length: 0x1000},
	}
	if diff := cmp.Diff(want, l.Regions()); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

// The allocator built from a layout must never produce a frame of the
// kernel image or of the boot information structure.
func TestAllocatorExcludesImages(t *testing.T) {
	l, err := Load(writeLayout(t, testLayout))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	allocator := l.Allocator()

	var frames []pmm.Frame
	for {
		frame, ok := allocator.AllocateFrame()
		if !ok {
			break
		}
		frames = append(frames, frame)
		if len(frames) > 1<<20 {
			t.Fatal("allocator did not exhaust")
		}
	}

	// 256 frames of RAM minus the 18 frames touched by the kernel image
	// and the boot info structure.
	if got, want := len(frames), 238; got != want {
		t.Fatalf("allocated %d frames, want %d", got, want)
	}
	for _, frame := range frames {
		addr := frame.Address()
		if addr >= 0x10000 && addr <= 0x21000 {
			t.Errorf("allocated frame %#x inside a reserved image", uint64(frame))
		}
	}
	l.LogTo(&log.BasicLogger{Level: log.Debug, Emitter: log.TestEmitter{TestLogger: t}})
}
