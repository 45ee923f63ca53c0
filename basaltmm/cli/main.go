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

// Package cli is the main entrypoint for basaltmm.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/basaltkernel/basalt/basaltmm/cmd"
	"github.com/basaltkernel/basalt/basaltmm/cmd/util"
	"github.com/basaltkernel/basalt/basaltmm/version"
	"github.com/basaltkernel/basalt/pkg/log"
)

// versionFlagName is the name of a flag that triggers printing the version.
const versionFlagName = "version"

var (
	// Debugging flags.
	debug     = flag.Bool("debug", false, "enable debug logging.")
	logPath   = flag.String("log", "", "file path to log to; %TIMESTAMP% and %COMMAND% are substituted. If empty, logs go to stderr.")
	logFormat = flag.String("log-format", "text", "log format: text (default) or json.")
)

// Main is the main entrypoint.
func Main() {
	// Register all commands.
	forEachCmd(subcommands.Register)

	// Register version flag if it is not already defined.
	if flag.Lookup(versionFlagName) == nil {
		flag.Bool(versionFlagName, false, "show version and exit.")
	}

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	// Are we showing the version?
	if flag.Lookup(versionFlagName).Value.(flag.Getter).Get().(bool) {
		fmt.Fprintf(os.Stdout, "basaltmm version %s\n", version.Version())
		os.Exit(0)
	}

	// Fatal errors are written to stderr for the user; the log target is
	// configured below.
	util.ErrorLogger = os.Stderr

	if *debug {
		log.SetLevel(log.Debug)
	}

	subcommand := flag.CommandLine.Arg(0)

	var logFile io.Writer = os.Stderr
	if *logPath != "" {
		f, err := log.OpenFile(buildLogPath(*logPath, subcommand), os.O_WRONLY|os.O_CREATE|os.O_APPEND)
		if err != nil {
			util.Fatalf("error opening log file %q: %v", *logPath, err)
		}
		logFile = f
	}
	log.SetTarget(newEmitter(*logFormat, logFile))

	const delimString = `**************** Basalt ****************`
	log.Infof(delimString)
	log.Infof("Version %s, %s, %s, %d CPUs, %s, PID %d", version.Version(), runtime.Version(), runtime.GOARCH, runtime.NumCPU(), runtime.GOOS, os.Getpid())
	log.Debugf("Page size: 0x%x (%d bytes)", os.Getpagesize(), os.Getpagesize())
	log.Infof("Args: %v", os.Args)
	log.Infof(delimString)

	os.Exit(int(subcommands.Execute(context.Background())))
}

// forEachCmd invokes the passed callback for each command supported by
// basaltmm.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")

	cb(new(cmd.Layout), "")
	cb(new(cmd.Frames), "")
	cb(new(cmd.Paging), "")
	cb(new(cmd.Run), "")
}

func newEmitter(format string, logFile io.Writer) log.Emitter {
	switch format {
	case "text":
		return log.GoogleEmitter{Emitter: &log.Writer{Next: logFile}}
	case "json":
		return log.JSONEmitter{Writer: &log.Writer{Next: logFile}}
	}
	util.Fatalf("invalid log format %q, must be 'text' or 'json'", format)
	panic("unreachable")
}

// buildLogPath expands %TIMESTAMP% and %COMMAND% in the -log flag value.
func buildLogPath(pattern, command string) string {
	p := strings.ReplaceAll(pattern, "%TIMESTAMP%", time.Now().Format("20060102-150405.000000"))
	return strings.ReplaceAll(p, "%COMMAND%", command)
}
