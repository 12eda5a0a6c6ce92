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

// Package pkgresolver implements the longest-prefix package lookup
// shared by the rerun planner and the validator: both need "find
// whatever was recorded for this package or its nearest recorded
// ancestor", keyed by Package, over a data set built once and queried
// many times.
package pkgresolver

import "github.com/buildtools/btd/internal/btypes"

// Resolver maps packages to values and supports longest-prefix lookup:
// given a query package, it returns the values stored for the deepest
// ancestor of that package (including the package itself).
type Resolver[V any] struct {
	data map[string][]V
}

// New returns an empty resolver.
func New[V any]() *Resolver[V] {
	return &Resolver[V]{data: map[string][]V{}}
}

// Insert associates v with pkg.
func (r *Resolver[V]) Insert(pkg btypes.Package, v V) {
	r.data[pkg.String()] = append(r.data[pkg.String()], v)
}

// IsEmpty reports whether the resolver has no entries at all.
func (r *Resolver[V]) IsEmpty() bool { return len(r.data) == 0 }

// Get returns the values stored for the deepest ancestor of pkg
// (including pkg itself), or nil if no ancestor has any entry.
func (r *Resolver[V]) Get(pkg btypes.Package) []V {
	s := pkg.String()
	for {
		if vs, ok := r.data[s]; ok {
			return vs
		}
		parent, ok := parentPackageString(s)
		if !ok {
			return nil
		}
		s = parent
	}
}

func parentPackageString(s string) (string, bool) {
	cp := btypes.NewCellPath(s)
	if cp.Path().String() == "" {
		return "", false
	}
	return cp.Parent().String(), true
}
