// Copyright 2024 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package sthistogram

import (
	"context"
	"fmt"
	"log"
	"os"
)

// log mirrors the calling convention of cockroachdb's pkg/util/log: every
// call takes a context.Context first (even though this package does not
// yet thread request tracing through it) and every Infof-level call is
// gated behind a verbosity check so that debug-only paths (spec §7: "logged
// at debug level") don't pay formatting cost unless enabled.
//
// This is a minimal reimplementation of that calling convention, not a
// vendored copy of util/log itself -- see DESIGN.md for why the real
// package can't be used standalone here.
var verbosity = 0

func init() {
	switch os.Getenv("STHISTOGRAM_LOG_VERBOSITY") {
	case "1":
		verbosity = 1
	case "2":
		verbosity = 2
	case "3":
		verbosity = 3
	}
}

var stdLogger = log.New(os.Stderr, "sthistogram: ", log.LstdFlags|log.Lshortfile)

// logV reports whether logging at the given verbosity level is enabled.
func logV(level int) bool {
	return verbosity >= level
}

// logInfof logs an informational message gated by verbosity level 2,
// matching cockroachdb's `if log.V(2) { log.Infof(ctx, ...) }` idiom.
func logInfof(_ context.Context, format string, args ...interface{}) {
	if logV(2) {
		_ = stdLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

// logWarningf logs unconditionally at warning level.
func logWarningf(_ context.Context, format string, args ...interface{}) {
	_ = stdLogger.Output(2, "warning: "+fmt.Sprintf(format, args...))
}
