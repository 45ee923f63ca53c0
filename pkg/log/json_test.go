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

package log

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelMarshalRoundTrip(t *testing.T) {
	for _, lv := range []Level{Warning, Info, Debug} {
		bs, err := lv.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v) failed: %v", lv, err)
		}
		var got Level
		if err := got.UnmarshalJSON(bs); err != nil {
			t.Fatalf("UnmarshalJSON(%s) failed: %v", bs, err)
		}
		if got != lv {
			t.Errorf("round trip of %v produced %v", lv, got)
		}
	}
}

func TestLevelUnmarshalFromInt(t *testing.T) {
	specs := []struct {
		in   string
		want Level
	}{
		{"0", Warning},
		{"1", Info},
		{"2", Debug},
	}
	for _, spec := range specs {
		var got Level
		if err := got.UnmarshalJSON([]byte(spec.in)); err != nil {
			t.Errorf("UnmarshalJSON(%s) failed: %v", spec.in, err)
			continue
		}
		if got != spec.want {
			t.Errorf("UnmarshalJSON(%s) = %v; want %v", spec.in, got, spec.want)
		}
	}

	if err := new(Level).UnmarshalJSON([]byte(`"trace"`)); err == nil {
		t.Error("UnmarshalJSON accepted an unknown level name")
	}
}

func TestJSONEmitterRecord(t *testing.T) {
	tw := &testWriter{}
	e := JSONEmitter{&Writer{Next: tw}}
	e.Emit(0, Warning, time.Date(2026, 5, 17, 9, 30, 5, 0, time.UTC), "disk %s", "full")

	if len(tw.lines) != 1 {
		t.Fatalf("emitted %d records; want 1", len(tw.lines))
	}
	var record jsonLog
	if err := json.Unmarshal([]byte(tw.lines[0]), &record); err != nil {
		t.Fatalf("emitted record is not valid JSON: %v", err)
	}
	if record.Level != Warning {
		t.Errorf("record level = %v; want %v", record.Level, Warning)
	}
	if !strings.HasSuffix(record.Msg, "disk full") {
		t.Errorf("record msg %q does not end with the formatted message", record.Msg)
	}
}
