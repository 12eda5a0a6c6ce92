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

// Package validate checks a loaded target graph (and the diff between two
// revisions of it) for problems that would make an impact analysis
// untrustworthy: packages that failed to parse/evaluate, and edges that
// point at targets the graph doesn't actually contain.
package validate

import (
	"fmt"
	"sort"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/pkgresolver"
	"github.com/buildtools/btd/internal/rerun"
	"github.com/buildtools/btd/internal/targetgraph"
	"github.com/buildtools/btd/internal/tracing"
)

// ErrorKind distinguishes the four shapes of ValidationError.
type ErrorKind int

const (
	// PackageFailed: a package failed to parse/evaluate at the diff
	// revision.
	PackageFailed ErrorKind = iota
	// PreexistingPackageFailed: a package failed to parse/evaluate, but
	// it also failed this way in the base revision, so the failure
	// predates the change under test.
	PreexistingPackageFailed
	// TargetDeleted: a target was removed at the diff revision but is
	// still depended on by a target that survived.
	TargetDeleted
	// BrokenEdge: a target depends on a label that isn't in the graph
	// at all, and wasn't already a dangling edge in the base revision.
	BrokenEdge
)

// ValidationError is one problem found by CheckErrors/CheckDangling or
// collected wholesale by DumpAllErrors.
type ValidationError struct {
	Kind ErrorKind

	Package btypes.Package // PackageFailed, PreexistingPackageFailed
	Message string         // PackageFailed, PreexistingPackageFailed

	Deleted      btypes.TargetLabel // TargetDeleted
	Missing      btypes.TargetLabel // BrokenEdge
	ReferencedBy btypes.TargetLabel // TargetDeleted, BrokenEdge
}

// Error renders the message a human (or a post-commit report) sees.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case PackageFailed:
		return fmt.Sprintf("Package `%s` failed with error produced by Buck2:\n%s", e.Package, e.Message)
	case PreexistingPackageFailed:
		return fmt.Sprintf("Package `%s` failed with error produced by Buck2 (it also failed in the base revision, so perhaps rebase):\n%s", e.Package, e.Message)
	case TargetDeleted:
		return fmt.Sprintf("Target `%s` was deleted but is referenced by `%s`", e.Deleted, e.ReferencedBy)
	case BrokenEdge:
		return fmt.Sprintf("Target `%s` has a dangling dependency. `%s` was not in the graph.", e.ReferencedBy, e.Missing)
	default:
		return "unknown validation error"
	}
}

func labelKeyOf(l btypes.TargetLabel) btypes.LabelKey {
	pkg, name := l.Key()
	return btypes.LabelKey{Package: pkg.String(), Name: name.String()}
}

// inUniverse reports whether dep matches any pattern in universe. Edges
// pointing outside the universe can't be validated: the graph was never
// asked to load that part of the repository, so "missing" there is
// unremarkable rather than an error.
func inUniverse(universe []btypes.TargetPattern, dep btypes.TargetLabel) bool {
	for _, p := range universe {
		if p.MatchesLabel(dep) {
			return true
		}
	}
	return false
}

// DumpAllErrors collects every PackageFailed error in graph, plus a
// BrokenEdge for every dependency edge that points outside the graph but
// inside universe. It ignores base entirely: callers that want the
// preexisting-failure/rebase distinction use CheckErrors instead. This is
// what a post-commit report (§6) runs against a single revision.
func DumpAllErrors(graph *targetgraph.Targets, universe []btypes.TargetPattern) []*ValidationError {
	var res []*ValidationError
	for _, e := range graph.AllErrors() {
		res = append(res, &ValidationError{Kind: PackageFailed, Package: e.Package, Message: e.Error})
	}
	for _, target := range graph.AllTargets() {
		for _, dep := range target.Deps {
			if _, ok := graph.ByKey(labelKeyOf(dep)); ok {
				continue
			}
			if !inUniverse(universe, dep) {
				continue
			}
			res = append(res, &ValidationError{Kind: BrokenEdge, Missing: dep, ReferencedBy: target.Label()})
		}
	}
	return res
}

// CheckErrors compares base and diff's package-evaluation errors. A
// package that newly failed at the diff revision is reported as
// PackageFailed, and takes priority: if any such new failure exists,
// CheckErrors returns only those. Otherwise, for every changed path, the
// nearest enclosing package that was already failing in base (and still
// is) is reported once as PreexistingPackageFailed, so a caller can
// tell "this PR broke something" from "this PR just touched a package
// that was already broken, maybe rebase".
func CheckErrors(base, diff *targetgraph.Targets, changes *rerun.Changes) []*ValidationError {
	diffErrors := make(map[string]btypes.BuckError)
	errorsTree := pkgresolver.New[btypes.BuckError]()
	for _, e := range diff.AllErrors() {
		diffErrors[e.Package.String()] = *e
		errorsTree.Insert(e.Package, *e)
	}

	for _, e := range base.AllErrors() {
		key := e.Package.String()
		if prior, ok := diffErrors[key]; ok {
			if prior.Error != e.Error {
				// Buck2 error messages can be non-deterministic (temp
				// paths, timing); a changed message alone doesn't make
				// this a new failure.
				tracing.Warnf("package `%s` failed in both base and diff with different messages: %q vs %q", key, e.Error, prior.Error)
			}
			delete(diffErrors, key)
		}
	}

	if len(diffErrors) > 0 {
		res := make([]*ValidationError, 0, len(diffErrors))
		for _, e := range diffErrors {
			res = append(res, &ValidationError{Kind: PackageFailed, Package: e.Package, Message: e.Error})
		}
		sortValidationErrors(res)
		return res
	}

	seen := make(map[string]struct{})
	var res []*ValidationError
	for _, p := range changes.CellPaths() {
		entries := errorsTree.Get(p.AsPackage())
		if len(entries) == 0 {
			continue
		}
		last := entries[len(entries)-1]
		key := last.Package.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, &ValidationError{Kind: PreexistingPackageFailed, Package: last.Package, Message: last.Error})
	}
	return res
}

func sortValidationErrors(errs []*ValidationError) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Package.String() < errs[j].Package.String() })
}

// CheckDangling reports two kinds of broken edges between base and diff:
//
//   - BrokenEdge: a target in immediateChanges gained a dependency that
//     doesn't exist in diff at all, and wasn't already a dangling edge on
//     that same target in base (so fixing an old dangling edge doesn't
//     retroactively get flagged, but adding a new one does).
//   - TargetDeleted: a target present in base but absent from diff is
//     still depended on by a target that survived into diff. Each
//     deleted target is reported at most once, even if several surviving
//     targets still reference it.
func CheckDangling(base, diff *targetgraph.Targets, immediateChanges []*btypes.BuckTarget, universe []btypes.TargetPattern) []*ValidationError {
	var res []*ValidationError

	for _, target := range immediateChanges {
		var oldDeps map[string]struct{}
		if oldTarget, ok := base.ByKey(target.LabelKey()); ok {
			oldDeps = make(map[string]struct{}, len(oldTarget.Deps))
			for _, d := range oldTarget.Deps {
				oldDeps[d.String()] = struct{}{}
			}
		}
		for _, dep := range target.Deps {
			if _, ok := diff.ByKey(labelKeyOf(dep)); ok {
				continue
			}
			if _, preexisting := oldDeps[dep.String()]; preexisting {
				continue
			}
			if !inUniverse(universe, dep) {
				continue
			}
			res = append(res, &ValidationError{Kind: BrokenEdge, Missing: dep, ReferencedBy: target.Label()})
		}
	}

	deleted := make(map[string]struct{})
	for _, t := range base.AllTargets() {
		if _, ok := diff.ByKey(t.LabelKey()); !ok {
			deleted[t.Label().String()] = struct{}{}
		}
	}
	if len(deleted) == 0 {
		return res
	}
	for _, target := range diff.AllTargets() {
		for _, dep := range target.Deps {
			key := dep.String()
			if _, ok := deleted[key]; !ok {
				continue
			}
			res = append(res, &ValidationError{Kind: TargetDeleted, Deleted: dep, ReferencedBy: target.Label()})
			delete(deleted, key)
		}
	}
	return res
}
