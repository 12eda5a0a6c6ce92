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

package output_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"
	"golang.org/x/tools/txtar"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/impact"
	"github.com/buildtools/btd/internal/output"
)

// goldenTarget is the compact description of one Output in a
// testdata/*.txtar archive's "targets.json" file.
type goldenTarget struct {
	Name     string `json:"name"`
	RuleType string `json:"rule_type"`
	Depth    uint64 `json:"depth"`
}

func txtarFile(t *testing.T, a *txtar.Archive, name string) []byte {
	t.Helper()
	for _, f := range a.Files {
		if f.Name == name {
			return f.Data
		}
	}
	t.Fatalf("testdata archive has no file %q", name)
	return nil
}

// TestWriteAllGolden renders a fixed set of targets and diffs the
// result against committed golden text output, the way
// a build-dump regression fixture would.
func TestWriteAllGolden(t *testing.T) {
	a, err := txtar.ParseFile(filepath.Join("testdata", "write_all.txtar"))
	qt.Assert(t, qt.IsNil(err))

	var targets []goldenTarget
	qt.Assert(t, qt.IsNil(json.Unmarshal(txtarFile(t, a, "targets.json"), &targets)))

	var outs []output.Output
	for _, g := range targets {
		x := &btypes.BuckTarget{
			Package:  btypes.NewPackage("root//"),
			Name:     btypes.NewTargetName(g.Name),
			RuleType: btypes.NewRuleType(g.RuleType),
		}
		outs = append(outs, output.FromTarget(x, g.Depth, false, impact.ImmediateCause(x, impact.CauseHash)))
	}

	var text bytes.Buffer
	qt.Assert(t, qt.IsNil(output.WriteAll(&text, output.Text, outs)))
	qt.Assert(t, qt.Equals(text.String(), string(txtarFile(t, a, "want.text"))))
}
