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

// Package util groups a bunch of common helpers used by commands.
package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/basaltkernel/basalt/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages
// show up to users of the command line tool.
var ErrorLogger io.Writer

// Fatalf logs the error message and exits with a failure status code.
func Fatalf(format string, args ...any) {
	res := fmt.Sprintf(format, args...)
	// If debug logging is enabled, dump full stack traces.
	if log.IsLogging(log.Debug) {
		res = fmt.Sprintf("%s\n%s", res, debug.Stack())
	}
	log.Warningf("FATAL ERROR: %v", res)
	if ErrorLogger != nil {
		fmt.Fprintf(ErrorLogger, "%s\n", res)
	}
	os.Exit(128)
}
