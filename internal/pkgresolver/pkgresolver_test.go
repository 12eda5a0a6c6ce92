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

package pkgresolver_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/pkgresolver"
)

func TestResolverLongestPrefix(t *testing.T) {
	r := pkgresolver.New[struct{}]()
	r.Insert(btypes.NewPackage("foo//bar"), struct{}{})

	packages := []string{
		"foo//bar/baz",
		"foo//bar",
		"foo//bar/inner/more",
		"fbcode//extra/test",
	}
	var matched int
	for _, p := range packages {
		if len(r.Get(btypes.NewPackage(p))) > 0 {
			matched++
		}
	}
	qt.Assert(t, qt.Equals(matched, 3))
}

func TestResolverRootPackage(t *testing.T) {
	r := pkgresolver.New[struct{}]()
	r.Insert(btypes.NewPackage("fbcode//"), struct{}{})

	qt.Assert(t, qt.HasLen(r.Get(btypes.NewPackage("fbcode//extra/test")), 1))
	qt.Assert(t, qt.HasLen(r.Get(btypes.NewPackage("foo//bar")), 0))
}

func TestResolverEmpty(t *testing.T) {
	r := pkgresolver.New[struct{}]()
	qt.Assert(t, qt.IsTrue(r.IsEmpty()))
	qt.Assert(t, qt.HasLen(r.Get(btypes.NewPackage("foo//bar")), 0))
}
