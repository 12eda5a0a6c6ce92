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

package validate_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/rerun"
	"github.com/buildtools/btd/internal/targetgraph"
	"github.com/buildtools/btd/internal/validate"
)

func errEntry(pkg, msg string) targetgraph.Entry {
	return targetgraph.Entry{
		Kind: targetgraph.KindError,
		Error: &btypes.BuckError{
			Package: btypes.NewPackage(pkg),
			Error:   msg,
		},
	}
}

func targetEntry(pkg, name string, deps ...string) targetgraph.Entry {
	depLabels := make([]btypes.TargetLabel, len(deps))
	for i, d := range deps {
		depLabels[i] = btypes.NewTargetLabel(d)
	}
	return targetgraph.Entry{
		Kind: targetgraph.KindTarget,
		Target: &btypes.BuckTarget{
			Package:  btypes.NewPackage(pkg),
			Name:     btypes.NewTargetName(name),
			RuleType: btypes.NewRuleType("prelude//rules.bzl:cxx_library"),
			Deps:     depLabels,
		},
	}
}

func universeAll() []btypes.TargetPattern {
	return []btypes.TargetPattern{btypes.NewTargetPattern("foo//...")}
}

func TestCheckErrorsChanged(t *testing.T) {
	base := targetgraph.New([]targetgraph.Entry{
		errEntry("foo//bar", "error0"),
	})
	diff := targetgraph.New([]targetgraph.Entry{
		errEntry("foo//bar", "error0"),
		errEntry("foo//baz", "error1"),
	})
	changes := rerun.Testing(nil)

	got := validate.CheckErrors(base, diff, changes)
	qt.Assert(t, qt.HasLen(got, 1))
	qt.Assert(t, qt.Equals(got[0].Kind, validate.PackageFailed))
	qt.Assert(t, qt.Equals(got[0].Package.String(), "foo//baz"))
	qt.Assert(t, qt.Equals(got[0].Message, "error1"))
}

func TestCheckErrorsChangedMessageMismatchWarnsNotErrors(t *testing.T) {
	// The same package fails in both revisions but with a different
	// message (error messages can be non-deterministic); this must not
	// be treated as a new failure.
	base := targetgraph.New([]targetgraph.Entry{errEntry("foo//bar", "error-old")})
	diff := targetgraph.New([]targetgraph.Entry{errEntry("foo//bar", "error-new")})
	changes := rerun.Testing(nil)

	got := validate.CheckErrors(base, diff, changes)
	qt.Assert(t, qt.HasLen(got, 0))
}

func TestCheckErrorsImpactful(t *testing.T) {
	base := targetgraph.New([]targetgraph.Entry{
		errEntry("foo//bar", "error0"),
		errEntry("foo//bar/baz", "error1"),
	})
	diff := base

	// A change under foo//bar surfaces the preexisting foo//bar failure.
	changes := rerun.Testing([]rerun.StatusPath{
		{Status: rerun.Modified, Path: btypes.NewCellPath("foo//bar/file.cpp")},
	})
	got := validate.CheckErrors(base, diff, changes)
	qt.Assert(t, qt.HasLen(got, 1))
	qt.Assert(t, qt.Equals(got[0].Kind, validate.PreexistingPackageFailed))
	qt.Assert(t, qt.Equals(got[0].Package.String(), "foo//bar"))

	// A change outside both failing packages surfaces nothing.
	unrelated := rerun.Testing([]rerun.StatusPath{
		{Status: rerun.Modified, Path: btypes.NewCellPath("foo//qux/file.cpp")},
	})
	got = validate.CheckErrors(base, diff, unrelated)
	qt.Assert(t, qt.HasLen(got, 0))
}

func TestCheckDangling(t *testing.T) {
	// Case 1: delete a target along with everything that referenced it -> 0 errors.
	base := targetgraph.New([]targetgraph.Entry{
		targetEntry("foo//bar", "victim"),
		targetEntry("foo//bar", "user", "foo//bar:victim"),
	})
	diff := targetgraph.New(nil)
	got := validate.CheckDangling(base, diff, nil, universeAll())
	qt.Assert(t, qt.HasLen(got, 0))

	// Case 2: delete a target with no dependents -> 0 errors.
	base = targetgraph.New([]targetgraph.Entry{targetEntry("foo//bar", "victim")})
	diff = targetgraph.New(nil)
	got = validate.CheckDangling(base, diff, nil, universeAll())
	qt.Assert(t, qt.HasLen(got, 0))

	// Case 3: delete a target but leave a dangling reference -> 1 TargetDeleted.
	base = targetgraph.New([]targetgraph.Entry{
		targetEntry("foo//bar", "victim"),
		targetEntry("foo//bar", "user", "foo//bar:victim"),
	})
	diff = targetgraph.New([]targetgraph.Entry{
		targetEntry("foo//bar", "user", "foo//bar:victim"),
	})
	got = validate.CheckDangling(base, diff, nil, universeAll())
	qt.Assert(t, qt.HasLen(got, 1))
	qt.Assert(t, qt.Equals(got[0].Kind, validate.TargetDeleted))
	qt.Assert(t, qt.Equals(got[0].Deleted.String(), "foo//bar:victim"))

	// Case 4: add a dependency on a target that doesn't exist -> 1 BrokenEdge.
	base = targetgraph.New([]targetgraph.Entry{targetEntry("foo//bar", "user")})
	userWithBadDep := targetEntry("foo//bar", "user", "foo//bar:missing")
	diff = targetgraph.New([]targetgraph.Entry{userWithBadDep})
	changed := userWithBadDep.Target
	got = validate.CheckDangling(base, diff, []*btypes.BuckTarget{changed}, universeAll())
	qt.Assert(t, qt.HasLen(got, 1))
	qt.Assert(t, qt.Equals(got[0].Kind, validate.BrokenEdge))
	qt.Assert(t, qt.Equals(got[0].Missing.String(), "foo//bar:missing"))

	// Case 5: pre-existing dangling edge tolerated even when the
	// referencing target is modified, as long as the edge itself didn't
	// change.
	base = targetgraph.New([]targetgraph.Entry{
		targetEntry("foo//bar", "user", "foo//bar:missing"),
	})
	userUnchangedDep := targetEntry("foo//bar", "user", "foo//bar:missing")
	diff = targetgraph.New([]targetgraph.Entry{userUnchangedDep})
	got = validate.CheckDangling(base, diff, []*btypes.BuckTarget{userUnchangedDep.Target}, universeAll())
	qt.Assert(t, qt.HasLen(got, 0))

	// Case 6: fixing the missing edge clears the error.
	base = targetgraph.New([]targetgraph.Entry{
		targetEntry("foo//bar", "user", "foo//bar:missing"),
		targetEntry("foo//bar", "fixed"),
	})
	fixedUser := targetEntry("foo//bar", "user", "foo//bar:fixed")
	diff = targetgraph.New([]targetgraph.Entry{
		fixedUser,
		targetEntry("foo//bar", "fixed"),
	})
	got = validate.CheckDangling(base, diff, []*btypes.BuckTarget{fixedUser.Target}, universeAll())
	qt.Assert(t, qt.HasLen(got, 0))
}

func TestDumpAllErrors(t *testing.T) {
	graph := targetgraph.New([]targetgraph.Entry{
		errEntry("foo//bar", "error0"),
		errEntry("foo//bar", "error1"),
		errEntry("foo//baz", "error2"),
		targetEntry("foo//good", "good0"),
		targetEntry("foo//good", "good1", "foo//good:good0"),
		targetEntry("foo//good", "dangling0", "foo//good:good0", "foo//good:missing"),
		targetEntry("foo//good", "dangling1", "outside//bar:target0"),
	})

	gotFooUniverse := validate.DumpAllErrors(graph, []btypes.TargetPattern{btypes.NewTargetPattern("foo//...")})
	var packageFailed, brokenEdge int
	var sawMissing bool
	for _, e := range gotFooUniverse {
		switch e.Kind {
		case validate.PackageFailed:
			packageFailed++
		case validate.BrokenEdge:
			brokenEdge++
			if e.Missing.String() == "foo//good:missing" {
				sawMissing = true
			}
			qt.Assert(t, qt.Not(qt.Equals(e.Missing.String(), "outside//bar:target0")))
		}
	}
	qt.Assert(t, qt.Equals(packageFailed, 3))
	qt.Assert(t, qt.Equals(brokenEdge, 1))
	qt.Assert(t, qt.IsTrue(sawMissing))

	gotOutsideUniverse := validate.DumpAllErrors(graph, []btypes.TargetPattern{btypes.NewTargetPattern("outside//...")})
	var sawOutside, sawMissingInOutsideUniverse bool
	for _, e := range gotOutsideUniverse {
		if e.Kind != validate.BrokenEdge {
			continue
		}
		switch e.Missing.String() {
		case "outside//bar:target0":
			sawOutside = true
		case "foo//good:missing":
			sawMissingInOutsideUniverse = true
		}
	}
	qt.Assert(t, qt.IsTrue(sawOutside))
	qt.Assert(t, qt.IsFalse(sawMissingInOutsideUniverse))
}
