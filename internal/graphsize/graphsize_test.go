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

package graphsize_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/graphsize"
	"github.com/buildtools/btd/internal/targetgraph"
)

func mkLabel(name string) btypes.TargetLabel {
	return btypes.NewTargetLabel("none//:" + name)
}

func sizeTarget(name string, deps ...string) targetgraph.Entry {
	depLabels := make([]btypes.TargetLabel, len(deps))
	for i, d := range deps {
		depLabels[i] = mkLabel(d)
	}
	return targetgraph.Entry{
		Kind: targetgraph.KindTarget,
		Target: &btypes.BuckTarget{
			Package:  btypes.NewPackage("none//"),
			Name:     btypes.NewTargetName(name),
			RuleType: btypes.NewRuleType("rule_type"),
			Deps:     depLabels,
		},
	}
}

func TestTargetsSize(t *testing.T) {
	targets := targetgraph.New([]targetgraph.Entry{
		sizeTarget("a", "b", "c"),
		sizeTarget("b", "d"),
		sizeTarget("c", "d", "e"),
		sizeTarget("d", "f"),
		sizeTarget("f", "g"),
	})
	sizes := graphsize.NewTargetsSize(targets)

	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("g")), 1))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("f")), 2))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("e")), 1))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("d")), 3))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("c")), 5))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("b")), 4))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("a")), 7))
}

func TestTargetsSizeCycle(t *testing.T) {
	targets := targetgraph.New([]targetgraph.Entry{
		sizeTarget("a", "b", "c"),
		sizeTarget("b", "a"),
	})
	sizes := graphsize.NewTargetsSize(targets)

	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("a")), 3))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("b")), 3))
	qt.Assert(t, qt.Equals(sizes.Get(mkLabel("c")), 1))
}

func TestBatchSizes(t *testing.T) {
	base := targetgraph.New([]targetgraph.Entry{
		sizeTarget("a", "b"),
		sizeTarget("b"),
	})
	diff := targetgraph.New([]targetgraph.Entry{
		sizeTarget("a", "b", "c"),
		sizeTarget("b"),
		sizeTarget("c"),
	})
	gs := graphsize.New(base, diff)
	a := diff.AllTargets()[0]
	got := gs.BatchSizes([]*btypes.BuckTarget{a})
	qt.Assert(t, qt.HasLen(got, 1))
	qt.Assert(t, qt.Equals(got[0].Before, 2))
	qt.Assert(t, qt.Equals(got[0].After, 3))
}
