// Copyright 2018 The CUE Authors
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

// Package tracing gives every btd binary a consistent way of logging:
// a leveled wrapper around the standard log.Logger, writing to stderr,
// plus named spans for timing the long-running passes (loading,
// planning, impact analysis).
package tracing

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunID is a correlation id generated once per process. Its first 8
// characters prefix every log line, so the lines of one run can be told
// apart from another's. It is not written into the output records.
var RunID = uuid.New().String()

// Level is a logging severity, most to least verbose as Debug > Warn.
type Level int

const (
	Warn Level = iota
	Info
	Debug
)

var (
	mu     sync.Mutex
	logger = log.New(os.Stderr, "", log.LstdFlags)
	level  = Info
)

func init() {
	if v := os.Getenv("BTD_LOG"); v != "" {
		SetLevel(ParseLevel(v))
	}
}

// ParseLevel maps a BTD_LOG value ("warn", "info", "debug") to a Level,
// defaulting to Info for anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "warn":
		return Warn
	case "debug":
		return Debug
	default:
		return Info
	}
}

// SetLevel sets the minimum level that will be written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

func logAt(l Level, format string, args ...interface{}) {
	mu.Lock()
	enabled := l <= level
	mu.Unlock()
	if !enabled {
		return
	}
	logger.Output(3, fmt.Sprintf("[%s] ", RunID[:8])+fmt.Sprintf(format, args...))
}

// Warnf logs a message that always shows, even at the default level:
// something the caller should know about but that isn't fatal to the
// operation in progress (for example, a non-deterministic error message
// that changed between two revisions of the same package).
func Warnf(format string, args ...interface{}) { logAt(Warn, "WARN "+format, args...) }

// Infof logs a progress message at the default verbosity.
func Infof(format string, args ...interface{}) { logAt(Info, format, args...) }

// Debugf logs a message only shown when BTD_LOG=debug.
func Debugf(format string, args ...interface{}) { logAt(Debug, format, args...) }

// Span times one named unit of work, logged at Debug on completion.
type Span struct {
	name  string
	start time.Time
}

// Start begins a span, named for the pass it covers (for example
// "load", "plan", "impact").
func Start(name string) *Span {
	return &Span{name: name, start: time.Now()}
}

// End logs the span's elapsed time.
func (s *Span) End() {
	Debugf("%s: done in %s", s.name, time.Since(s.start))
}
