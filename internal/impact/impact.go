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

// Package impact computes which targets are directly touched by a set
// of source changes (the immediate-impact engine) and then propagates
// that impact along the reverse dependency graph in depth-limited layers
// (the recursive-impact engine).
package impact

import (
	"reflect"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/glob"
	"github.com/buildtools/btd/internal/rerun"
	"github.com/buildtools/btd/internal/targetgraph"
)

// GraphImpact is the result of ImmediateTargetChanges: targets whose
// change is expected to propagate to their dependents (Recursive), and
// targets whose change is confined to themselves (NonRecursive,
// currently only a package-values-only change).
type GraphImpact struct {
	Recursive    []*btypes.BuckTarget
	NonRecursive []*btypes.BuckTarget
}

func (g GraphImpact) Len() int { return len(g.Recursive) + len(g.NonRecursive) }

// All returns every impacted target, recursive first.
func (g GraphImpact) All() []*btypes.BuckTarget {
	out := make([]*btypes.BuckTarget, 0, g.Len())
	out = append(out, g.Recursive...)
	out = append(out, g.NonRecursive...)
	return out
}

// changedBzlFiles returns the set (as CellPath strings) of `.bzl` files
// that changed, directly or via a chain of loads, within diff's import
// graph.
func changedBzlFiles(diff *targetgraph.Targets, changes *rerun.Changes, trackPreludeChanges bool) map[string]struct{} {
	rdeps := make(map[string][]string)
	var todo []string
	for _, imp := range diff.AllImports() {
		if !trackPreludeChanges && imp.File.IsPreludeBzlFile() {
			continue
		}
		fileKey := imp.File.String()
		if changes.Contains(imp.File) {
			todo = append(todo, fileKey)
		}
		for _, dep := range imp.Imports {
			rdeps[dep.String()] = append(rdeps[dep.String()], fileKey)
		}
	}

	res := make(map[string]struct{}, len(todo))
	for _, x := range todo {
		res[x] = struct{}{}
	}
	for len(todo) > 0 {
		x := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		for _, r := range rdeps[x] {
			if _, ok := res[r]; !ok {
				res[r] = struct{}{}
				todo = append(todo, r)
			}
		}
	}
	return res
}

func isChangedCISrcs(fileDeps []btypes.Glob, changes *rerun.Changes) bool {
	if len(fileDeps) == 0 || changes.IsEmpty() {
		return false
	}
	matcher := glob.New(fileDeps)
	for _, p := range changes.ProjectPaths() {
		if matcher.Matches(p) {
			return true
		}
	}
	return false
}

// ImmediateTargetChanges classifies every target in diff as recursively
// changed, non-recursively changed, or unchanged, by comparing it
// against its counterpart (by label key) in base.
//
// Classification order: a change to the target's own package directory
// (the "hidden feature" of citing a directory in the changes file),
// then a hash change (including "target is new"), then an input change,
// a ci_srcs glob match, or a rule-definition (.bzl) change — any of
// which make the target recursive. Failing all of those, a
// package_values-only change makes it non-recursive. Anything else is
// unchanged and dropped.
func ImmediateTargetChanges(base, diff *targetgraph.Targets, changes *rerun.Changes, trackPreludeChanges bool) GraphImpact {
	bzlChange := changedBzlFiles(diff, changes, trackPreludeChanges)

	targets := diff.AllTargets()
	recursive := make([]bool, len(targets))
	nonRecursive := make([]bool, len(targets))

	var g errgroup.Group
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			changePackage := changes.ContainsPackage(target.Package)
			oldTarget, hasOld := base.ByKey(target.LabelKey())

			changeHash := !hasOld || !oldTarget.Hash.Equal(target.Hash)
			changePackageValues := !hasOld || !reflect.DeepEqual(oldTarget.PackageValues, target.PackageValues)
			changeInputs := false
			for _, in := range target.Inputs {
				if changes.Contains(in) {
					changeInputs = true
					break
				}
			}
			changeCISrcs := isChangedCISrcs(target.CISrcs, changes)
			changeRule := len(bzlChange) > 0
			if changeRule {
				_, changeRule = bzlChange[target.RuleType.File().String()]
			}

			switch {
			case changePackage || changeHash || changeInputs || changeCISrcs || changeRule:
				recursive[i] = true
			case changePackageValues:
				nonRecursive[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	var res GraphImpact
	for i, target := range targets {
		switch {
		case recursive[i]:
			res.Recursive = append(res.Recursive, target)
		case nonRecursive[i]:
			res.NonRecursive = append(res.NonRecursive, target)
		}
	}
	sortByLabelKey(res.Recursive)
	sortByLabelKey(res.NonRecursive)
	return res
}

func sortByLabelKey(targets []*btypes.BuckTarget) {
	sort.Slice(targets, func(i, j int) bool {
		ki, kj := targets[i].LabelKey(), targets[j].LabelKey()
		if ki.Package != kj.Package {
			return ki.Package < kj.Package
		}
		return ki.Name < kj.Name
	})
}

// hintAppliesTo reports the (package, name) a `ci_hint@name` target
// refers to, if target's name carries that prefix.
func hintAppliesTo(target *btypes.BuckTarget) (btypes.Package, btypes.TargetName, bool) {
	rest, ok := strings.CutPrefix(target.Name.String(), "ci_hint@")
	if !ok {
		return btypes.Package{}, btypes.TargetName{}, false
	}
	return target.Package, btypes.NewTargetName(rest), true
}

// depIndex is the reverse-dependency index used by RecursiveTargetChanges:
// it maps a target label to the set of targets that depend on it, whether
// via an exact `deps` edge or a `ci_deps` pattern edge (exact, package,
// or recursive-shaped).
type depIndex struct {
	exact     map[string][]*btypes.BuckTarget
	recursive []recursiveDep
}

type recursiveDep struct {
	pattern btypes.TargetPattern
	targets []*btypes.BuckTarget
}

func newDepIndex() *depIndex {
	return &depIndex{exact: map[string][]*btypes.BuckTarget{}}
}

func (idx *depIndex) insertExact(label btypes.TargetLabel, target *btypes.BuckTarget) {
	idx.exact[label.String()] = append(idx.exact[label.String()], target)
}

func (idx *depIndex) insertPattern(pattern btypes.TargetPattern, target *btypes.BuckTarget) {
	if label, ok := pattern.AsTargetLabel(); ok {
		idx.insertExact(label, target)
		return
	}
	for i := range idx.recursive {
		if idx.recursive[i].pattern.String() == pattern.String() {
			idx.recursive[i].targets = append(idx.recursive[i].targets, target)
			return
		}
	}
	idx.recursive = append(idx.recursive, recursiveDep{pattern: pattern, targets: []*btypes.BuckTarget{target}})
}

func (idx *depIndex) get(label btypes.TargetLabel) []*btypes.BuckTarget {
	res := append([]*btypes.BuckTarget(nil), idx.exact[label.String()]...)
	for _, rd := range idx.recursive {
		if rd.pattern.MatchesLabel(label) {
			res = append(res, rd.targets...)
		}
	}
	return res
}

// RecursiveTargetChanges propagates an immediate GraphImpact outward
// along the reverse dependency graph, producing depth-limited layers:
// layer 0 is the immediate recursive set (plus a silently-folded-in
// immediate non-recursive set), and each subsequent layer is everything
// newly reached by following deps/ci_deps/ci_hint edges from the
// previous layer, restricted to targets whose rule type satisfies
// followRuleType. depth<0 means unlimited. When the walk runs out of
// targets, the final layer is an empty sentinel signalling no further
// levels exist; when depth stops the walk first, the final layer holds
// the targets reached by the last step, which are not expanded further.
func RecursiveTargetChanges(diff *targetgraph.Targets, changes GraphImpact, depth int, followRuleType func(btypes.RuleType) bool) [][]*btypes.BuckTarget {
	if len(changes.Recursive) == 0 {
		var res [][]*btypes.BuckTarget
		if len(changes.NonRecursive) > 0 {
			res = append(res, append([]*btypes.BuckTarget(nil), changes.NonRecursive...))
		}
		res = append(res, nil)
		return truncateLayers(res, depth)
	}

	targets := diff.AllTargets()
	idx := newDepIndex()
	hints := make(map[btypes.LabelKey]btypes.TargetLabel)
	for _, target := range targets {
		for _, d := range target.Deps {
			idx.insertExact(d, target)
		}
		for _, d := range target.CIDeps {
			idx.insertPattern(d, target)
		}
		if target.RuleType.Short() == "ci_hint" {
			if pkg, name, ok := hintAppliesTo(target); ok {
				hints[btypes.LabelKey{Package: pkg.String(), Name: name.String()}] = target.Label()
			}
		}
	}
	if len(hints) > 0 {
		for _, target := range targets {
			if hint, ok := hints[target.LabelKey()]; ok {
				idx.insertExact(hint, target)
				delete(hints, target.LabelKey())
				if len(hints) == 0 {
					break
				}
			}
		}
	}

	todo := append([]*btypes.BuckTarget(nil), changes.Recursive...)
	nonRecursiveChanges := append([]*btypes.BuckTarget(nil), changes.NonRecursive...)

	done := make(map[btypes.LabelKey]bool, len(changes.Recursive)+len(changes.NonRecursive))
	for _, t := range changes.Recursive {
		done[t.LabelKey()] = true
	}
	for _, t := range changes.NonRecursive {
		done[t.LabelKey()] = false
	}

	var result [][]*btypes.BuckTarget
	var todoSilent, nextSilent []*btypes.BuckTarget

	addResult := func(items []*btypes.BuckTarget) {
		sortByLabelKey(items)
		result = append(result, items)
	}

	iterations := depth
	if iterations < 0 {
		iterations = len(targets) + 1
	}
	for n := 0; n < iterations; n++ {
		if len(todo) == 0 && len(todoSilent) == 0 {
			if len(nonRecursiveChanges) > 0 {
				addResult(nonRecursiveChanges)
			}
			break
		}

		var next []*btypes.BuckTarget
		for _, lbl := range append(append([]*btypes.BuckTarget(nil), todo...), todoSilent...) {
			if !followRuleType(lbl.RuleType) {
				continue
			}
			for _, rdep := range idx.get(lbl.Label()) {
				key := rdep.LabelKey()
				wasDone, seen := done[key]
				switch {
				case !seen:
					next = append(next, rdep)
					done[key] = true
				case !wasDone:
					nextSilent = append(nextSilent, rdep)
					done[key] = true
				}
			}
		}

		if len(nonRecursiveChanges) > 0 {
			nonRecursiveChanges = append(nonRecursiveChanges, todo...)
			addResult(nonRecursiveChanges)
			nonRecursiveChanges = nil
		} else if len(todo) > 0 {
			addResult(todo)
		}
		todo = next
		todoSilent, nextSilent = nextSilent, nil
	}

	addResult(todo)
	return result
}

func truncateLayers(layers [][]*btypes.BuckTarget, depth int) [][]*btypes.BuckTarget {
	if depth < 0 || depth >= len(layers) {
		return layers
	}
	return layers[:depth]
}
