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

// Package propagate walks a target graph's reverse dependency edges,
// starting from whatever set of targets a caller-supplied predicate
// seeds, and marks every transitive dependent reached along the way.
// It does not currently propagate through target patterns (ci_deps):
// every target known to care about this lives behind a normal dep edge.
package propagate

import (
	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/targetgraph"
)

// Labels reports the label key of every target reached by seed (directly
// or transitively, via reverse `deps` edges): the targets seed selects,
// plus every target that (transitively) depends on one of them.
func Labels(targets *targetgraph.Targets, seed func(*btypes.BuckTarget) bool) map[btypes.LabelKey]bool {
	all := targets.AllTargets()

	rdeps := make(map[string][]*btypes.BuckTarget, len(all))
	var todo []*btypes.BuckTarget
	marked := make(map[btypes.LabelKey]bool)

	for _, target := range all {
		for _, d := range target.Deps {
			rdeps[d.String()] = append(rdeps[d.String()], target)
		}
		if seed(target) {
			todo = append(todo, target)
			marked[target.LabelKey()] = true
		}
	}

	for len(todo) > 0 {
		t := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		for _, parent := range rdeps[t.Label().String()] {
			key := parent.LabelKey()
			if marked[key] {
				continue
			}
			marked[key] = true
			todo = append(todo, parent)
		}
	}
	return marked
}

// UsesSudoRecursively reports every target that either runs as (or under)
// sudo itself (carries the `uses_sudo` label) or transitively depends on
// one that does.
func UsesSudoRecursively(targets *targetgraph.Targets) map[btypes.LabelKey]bool {
	return Labels(targets, func(t *btypes.BuckTarget) bool { return t.Labels.Contains("uses_sudo") })
}
