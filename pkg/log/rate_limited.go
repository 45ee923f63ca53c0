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
	"time"

	"golang.org/x/time/rate"
)

// rateLimited wraps a Logger and drops messages arriving faster than the
// configured interval. Burst is one, so after each forwarded message the
// logger stays quiet for the full interval.
type rateLimited struct {
	inner Logger
	limit *rate.Limiter
}

// Debugf implements Logger.Debugf.
func (r *rateLimited) Debugf(format string, v ...any) {
	if r.limit.Allow() {
		r.inner.Debugf(format, v...)
	}
}

// Infof implements Logger.Infof.
func (r *rateLimited) Infof(format string, v ...any) {
	if r.limit.Allow() {
		r.inner.Infof(format, v...)
	}
}

// Warningf implements Logger.Warningf.
func (r *rateLimited) Warningf(format string, v ...any) {
	if r.limit.Allow() {
		r.inner.Warningf(format, v...)
	}
}

// IsLogging implements Logger.IsLogging. The limit gates emission only, not
// level checks.
func (r *rateLimited) IsLogging(level Level) bool {
	return r.inner.IsLogging(level)
}

// RateLimitedLogger returns a Logger that forwards to the given logger at
// most once per the given duration.
func RateLimitedLogger(logger Logger, every time.Duration) Logger {
	return &rateLimited{
		inner: logger,
		limit: rate.NewLimiter(rate.Every(every), 1),
	}
}

// BasicRateLimitedLogger is RateLimitedLogger over the global logger. Paths
// that may fire in tight loops, frame release among them, log through it.
func BasicRateLimitedLogger(every time.Duration) Logger {
	return RateLimitedLogger(Log(), every)
}
