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

// Package intern implements a process-lifetime string interner.
//
// Interned strings are cheap to compare and hash: two handles compare
// equal if and only if their underlying bytes are equal, and equality is
// a single pointer comparison rather than a byte scan. Entries are never
// freed; the pool grows for the life of the process, matching the
// "unbounded but concurrent" pool described for the target-impact
// analyzer's string-heavy data model.
package intern

import "sync"

// String is a handle to an interned string. The zero value is the empty
// string. Handles are comparable and hashable via their String method.
type String struct {
	e *entry
}

type entry struct {
	s string
}

var pool = struct {
	mu sync.RWMutex
	m  map[string]*entry
}{m: make(map[string]*entry)}

var emptyEntry = &entry{s: ""}

// New interns s, returning a handle shared by every other call to New
// with byte-identical content.
func New(s string) String {
	if s == "" {
		return String{emptyEntry}
	}
	pool.mu.RLock()
	e, ok := pool.m[s]
	pool.mu.RUnlock()
	if ok {
		return String{e}
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()
	if e, ok := pool.m[s]; ok {
		return String{e}
	}
	e = &entry{s: s}
	pool.m[s] = e
	return String{e}
}

// New3 is equivalent to New with its three arguments concatenated. The
// concatenation is built before the pool lookup, even when it is already
// interned.
func New3(a, b, c string) String {
	if a == "" && b == "" && c == "" {
		return String{emptyEntry}
	}
	key := a + b + c
	return New(key)
}

// IsZero reports whether s is the zero value.
func (s String) IsZero() bool { return s.e == nil }

// String returns the interned text. Safe on the zero value.
func (s String) String() string {
	if s.e == nil {
		return ""
	}
	return s.e.s
}

// Equal reports whether s and o refer to byte-identical text. For two
// non-zero handles it is a pointer comparison, not a byte comparison; the
// zero value is equal to any handle for the empty string.
func (s String) Equal(o String) bool {
	if s.e == nil || o.e == nil {
		return s.String() == o.String()
	}
	return s.e == o.e
}

// Less orders two handles lexicographically by their text. Useful for
// deterministic sorting without re-deriving a byte comparison each time.
func Less(a, b String) bool {
	return a.String() < b.String()
}
