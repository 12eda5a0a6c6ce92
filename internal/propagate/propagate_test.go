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

package propagate_test

import (
	"sort"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/propagate"
	"github.com/buildtools/btd/internal/targetgraph"
)

func sudoTarget(name string, deps []string, usesSudo bool) targetgraph.Entry {
	pkg := btypes.NewPackage("foo//")
	depLabels := make([]btypes.TargetLabel, len(deps))
	for i, d := range deps {
		depLabels[i] = pkg.Join(btypes.NewTargetName(d))
	}
	var labels btypes.Labels
	if usesSudo {
		labels = btypes.NewLabels("uses_sudo")
	}
	return targetgraph.Entry{
		Kind: targetgraph.KindTarget,
		Target: &btypes.BuckTarget{
			Package:  pkg,
			Name:     btypes.NewTargetName(name),
			RuleType: btypes.NewRuleType("prelude//rules.bzl:cxx_library"),
			Deps:     depLabels,
			Labels:   labels,
		},
	}
}

func TestUsesSudoRecursively(t *testing.T) {
	targets := targetgraph.New([]targetgraph.Entry{
		// the leaf node requires sudo
		sudoTarget("1", nil, true),
		sudoTarget("1a", []string{"1"}, false),
		sudoTarget("1b", []string{"1a"}, false),
		// middle node requires sudo
		sudoTarget("2", nil, false),
		sudoTarget("2a", []string{"2"}, true),
		sudoTarget("2b", []string{"2a"}, false),
		// root node requires sudo
		sudoTarget("3", nil, false),
		sudoTarget("3a", []string{"3"}, false),
		sudoTarget("3b", []string{"3a"}, true),
		// no sudo
		sudoTarget("4", nil, false),
		sudoTarget("4a", []string{"4"}, false),
		sudoTarget("4b", []string{"4a"}, false),
		// one of the dependencies requires sudo
		sudoTarget("5", nil, false),
		sudoTarget("5a", []string{"5"}, false),
		sudoTarget("5b", nil, true),
		sudoTarget("5c", []string{"5a", "5b"}, false),
		// multiple visits that would create an early return with a
		// naive marked-set check
		sudoTarget("6", nil, true),
		sudoTarget("6a", []string{"6"}, true),
		sudoTarget("6b", []string{"6a"}, false),
	})

	marked := propagate.UsesSudoRecursively(targets)
	var names []string
	for key := range marked {
		names = append(names, key.Name)
	}
	sort.Strings(names)

	qt.Assert(t, qt.DeepEquals(names, []string{
		"1", "1a", "1b", "2a", "2b", "3b", "5b", "5c", "6", "6a", "6b",
	}))
}
