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

package mem

import "testing"

func TestIsCanonical(t *testing.T) {
	specs := []struct {
		addr VirtualAddress
		want bool
	}{
		{0x0, true},
		{0x42, true},
		{0x0000_7fff_ffff_ffff, true},
		{0x0000_8000_0000_0000, false},
		{0x0000_8000_0000_0001, false},
		{0xdead_beef_0000_0000, false},
		{0xffff_7fff_ffff_ffff, false},
		{0xffff_8000_0000_0000, true},
		{0xffff_ffff_ffff_ffff, true},
	}

	for _, spec := range specs {
		if got := spec.addr.IsCanonical(); got != spec.want {
			t.Errorf("IsCanonical(%#x) = %t; want %t", uint64(spec.addr), got, spec.want)
		}
	}
}

func TestPageOffset(t *testing.T) {
	specs := []struct {
		addr VirtualAddress
		want Size
	}{
		{0x0, 0},
		{0x123, 0x123},
		{0x1000, 0},
		{0xffff_8000_0000_0042, 0x42},
	}

	for _, spec := range specs {
		if got := spec.addr.PageOffset(); got != spec.want {
			t.Errorf("PageOffset(%#x) = %#x; want %#x", uint64(spec.addr), got, spec.want)
		}
	}
}

func TestSizeUnits(t *testing.T) {
	if got, want := 2*Mb, Size(2097152); got != want {
		t.Errorf("2*Mb = %d; want %d", got, want)
	}
	if got, want := Gb, 1024*Mb; got != want {
		t.Errorf("Gb = %d; want %d", got, want)
	}
	if got, want := PageSize, 4*Kb; got != want {
		t.Errorf("PageSize = %d; want %d", got, want)
	}
}

func TestSizeString(t *testing.T) {
	specs := []struct {
		size Size
		want string
	}{
		{0, "0B"},
		{42, "42B"},
		{Kb, "1K"},
		{PageSize, "4K"},
		{2 * Mb, "2M"},
		{3 * Gb, "3G"},
		{Mb + Kb, "1025K"},
	}

	for _, spec := range specs {
		if got := spec.size.String(); got != spec.want {
			t.Errorf("String(%d) = %q; want %q", uint64(spec.size), got, spec.want)
		}
	}
}
