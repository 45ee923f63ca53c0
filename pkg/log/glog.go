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
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// GoogleEmitter is a wrapper that emits logs in a format compatible with
// package github.com/golang/glog.
type GoogleEmitter struct {
	// Emitter is the underlying emitter.
	Emitter
}

// pid is used for the threadid component of the header, right-aligned to the
// 7 characters of padding the glog logger uses. See glog.loggingT.formatHeader.
var pid = fmt.Appendf(nil, "%7d", os.Getpid())

// callSite returns the file and line of the original log statement for an
// Emit invocation at the given depth, with the directory trimmed from the
// file.
func callSite(depth int) (string, int, bool) {
	_, file, line, ok := runtime.Caller(depth + 2)
	if !ok {
		return "", 0, false
	}
	if slash := strings.LastIndexByte(file, byte('/')); slash >= 0 {
		file = file[slash+1:]
	}
	return file, line, true
}

// Emit emits the message, google-style.
//
// Log lines have this form:
//
//	Lmmdd hh:mm:ss.uuuuuu threadid file:line] msg...
//
// where L is a single character for the log level (eg 'I' for INFO), mmdd is
// the zero-padded month and day, the time carries fractional seconds down to
// the microsecond, and threadid is the space-padded pid.
func (g GoogleEmitter) Emit(depth int, level Level, timestamp time.Time, format string, args ...any) {
	// The header is built into a local array to avoid allocation on the
	// common path; it only escapes to the heap when a line outgrows it.
	var local [256]byte
	b := local[:0]

	// Log level.
	switch level {
	case Debug:
		b = append(b, 'D')
	case Info:
		b = append(b, 'I')
	case Warning:
		b = append(b, 'W')
	}

	// Timestamp, truncated to microseconds.
	b = timestamp.AppendFormat(b, "0102 15:04:05.000000")
	b = append(b, ' ')

	// The pid.
	b = append(b, pid...)
	b = append(b, ' ')

	// The caller.
	file, line := "???", 0
	if f, l, ok := callSite(depth); ok {
		file, line = f, l
	}
	b = append(b, file...)
	b = append(b, ':')
	b = strconv.AppendInt(b, int64(line), 10)
	b = append(b, ']')
	b = append(b, ' ')

	// User-provided format string, copied.
	b = append(b, format...)

	// End with a newline.
	b = append(b, '\n')

	// Pass to the underlying routine.
	g.Emitter.Emit(depth+1, level, timestamp, unsafeString(b), args...)
}
