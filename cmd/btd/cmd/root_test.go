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

package cmd

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestRequireFlagsMissing(t *testing.T) {
	err := requireFlags(&options{})
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.ErrorMatches(err, "(?s).*--cells is required.*--changes is required.*--base is required.*--diff is required.*"))
}

func TestRequireFlagsSatisfied(t *testing.T) {
	err := requireFlags(&options{
		cellsPath:   "cells.json",
		changesPath: "changes.txt",
		basePath:    "base.json",
		diffPath:    "diff.json",
	})
	qt.Assert(t, qt.IsNil(err))
}

func TestNewRootCmdRegistersFlags(t *testing.T) {
	c := NewRootCmd()
	for _, name := range []string{"cells", "changes", "base", "diff", "universe", "format", "depth", "glean"} {
		qt.Assert(t, qt.IsNotNil(c.Flags().Lookup(name)))
	}
	qt.Assert(t, qt.IsNotNil(c.Commands()))
}
