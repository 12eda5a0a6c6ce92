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

// Package errs defines a shared list-of-errors type for btd, in place of
// a single error per call.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// New is a convenience wrapper for [errors.New].
func New(msg string) error { return errors.New(msg) }

// Newf creates an error from a format string, the way fmt.Errorf does.
func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// List is an ordered collection of errors, used where a single operation
// can surface many independent failures (package load errors, dangling
// dependency edges, and so on) rather than stopping at the first one.
type List []error

// Add appends err to the list. A nil err is a no-op.
func (l *List) Add(err error) {
	if err != nil {
		*l = append(*l, err)
	}
}

// Addf appends a formatted error to the list.
func (l *List) Addf(format string, args ...interface{}) {
	l.Add(fmt.Errorf(format, args...))
}

// IsEmpty reports whether the list has no errors.
func (l List) IsEmpty() bool { return len(l) == 0 }

// Err returns l as an error, or nil if l is empty. This is the usual way
// to return a List from a function with an `error` result type.
func (l List) Err() error {
	if l.IsEmpty() {
		return nil
	}
	return l
}

// Error implements the error interface, joining every message on its own
// line.
func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Is reports whether target matches any error in the list.
func (l List) Is(target error) bool {
	for _, e := range l {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

// As finds the first error in the list matching target's type.
func (l List) As(target interface{}) bool {
	for _, e := range l {
		if errors.As(e, target) {
			return true
		}
	}
	return false
}
