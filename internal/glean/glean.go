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

// Package glean computes the subset of an impact analysis that matters
// to a C++ indexer: if a cxx_library/cxx_executable rule itself changes,
// everything needs reindexing; if a header changes, the impact
// propagates transitively through every dependent; if any other input
// changes, only the directly enclosing cxx rule is affected.
package glean

import (
	"sort"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/impact"
	"github.com/buildtools/btd/internal/rerun"
	"github.com/buildtools/btd/internal/targetgraph"
)

func cxxRuleType(rt btypes.RuleType) bool {
	switch rt.Short() {
	case "cxx_library", "cxx_executable":
		return true
	default:
		return false
	}
}

// Changes computes the Glean-relevant impact layers: header changes
// propagate through the full dependency graph (any rule type), while
// every other change only propagates through non-cxx rule types (so a
// cxx_library/cxx_executable is always a stopping point, since the
// indexer only cares about the rules themselves, not their dependents'
// dependents). The two layer sets are merged index-by-index, deduped,
// and filtered down to cxx rules only.
func Changes(base, diff *targetgraph.Targets, changes *rerun.Changes, depth int) [][]*btypes.BuckTarget {
	headerChanges := changes.FilterByExtension(func(ext string, ok bool) bool { return ok && ext == "h" })
	header := impact.ImmediateTargetChanges(base, diff, headerChanges, true)
	headerRec := impact.RecursiveTargetChanges(diff, header, depth, func(btypes.RuleType) bool { return true })

	other := impact.ImmediateTargetChanges(base, diff, changes, true)
	otherRec := impact.RecursiveTargetChanges(diff, other, depth, func(rt btypes.RuleType) bool { return !cxxRuleType(rt) })

	return merge(headerRec, otherRec)
}

func merge(a, b [][]*btypes.BuckTarget) [][]*btypes.BuckTarget {
	seen := make(map[btypes.LabelKey]struct{})
	var res [][]*btypes.BuckTarget

	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var combined []*btypes.BuckTarget
		if i < len(a) {
			combined = append(combined, a[i]...)
		}
		if i < len(b) {
			combined = append(combined, b[i]...)
		}

		var layer []*btypes.BuckTarget
		for _, item := range combined {
			key := item.LabelKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if cxxRuleType(item.RuleType) {
				layer = append(layer, item)
			}
		}
		if len(layer) == 0 {
			continue
		}
		sort.Slice(layer, func(i, j int) bool {
			ki, kj := layer[i].LabelKey(), layer[j].LabelKey()
			if ki.Package != kj.Package {
				return ki.Package < kj.Package
			}
			return ki.Name < kj.Name
		})
		res = append(res, layer)
	}
	return res
}
