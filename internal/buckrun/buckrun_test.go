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

package buckrun

import (
	"os"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/btypes"
)

func TestTargetsArguments(t *testing.T) {
	args := TargetsArguments()
	qt.Assert(t, qt.Equals(args[0], "targets"))
	qt.Assert(t, qt.IsTrue(strings.Contains(strings.Join(args, " "), "--json-lines")))
	qt.Assert(t, qt.IsTrue(strings.Contains(strings.Join(args, " "), "citadel\\.labels")))
}

func TestWriteAtFile(t *testing.T) {
	patterns := []btypes.TargetPattern{
		btypes.NewTargetPattern("foo//..."),
		btypes.NewTargetPattern("bar//:baz"),
	}
	arg, cleanup, err := writeAtFile(patterns)
	qt.Assert(t, qt.IsNil(err))
	defer cleanup()

	qt.Assert(t, qt.IsTrue(strings.HasPrefix(arg, "@")))
	content, err := os.ReadFile(arg[1:])
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(content), "foo//...\nbar//:baz"))

	cleanup()
	_, err = os.Stat(arg[1:])
	qt.Assert(t, qt.IsTrue(os.IsNotExist(err)))
}

func TestCommandIsolationDir(t *testing.T) {
	b := New("buck2", "my-iso")
	cmd := b.command("root")
	qt.Assert(t, qt.DeepEquals(cmd.Args, []string{"buck2", "--isolation-dir", "my-iso", "root"}))
}
