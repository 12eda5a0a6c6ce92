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

package rerun

import (
	"strings"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/cells"
	"github.com/buildtools/btd/internal/pkgresolver"
	"github.com/buildtools/btd/internal/targetgraph"
)

// PackageStatus records whether a package is known to still exist
// (Present) or whether its fate is unresolved and must be probed
// (Unknown).
type PackageStatus int

const (
	Present PackageStatus = iota
	Unknown
)

func isBuckConfig(path btypes.CellPath) bool {
	s := path.String()
	if strings.Contains(s, "buck2/tests") {
		return false
	}
	if ext, ok := path.Extension(); ok && (ext == "bcfg" || ext == "buckconfig") {
		return true
	}
	return strings.Contains(s, "/mode/") || strings.Contains(s, "/buckconfigs/")
}

func isBuckDeployment(path btypes.CellPath) bool {
	return strings.HasPrefix(path.String(), "fbsource//tools/buck2-versions/")
}

func invalidatesGraph(path btypes.CellPath) bool {
	return isBuckConfig(path) || isBuckDeployment(path)
}

// Plan computes the packages that must be re-evaluated at the diff
// revision. The second return value is false when any change hard
// invalidates the whole graph (a buckconfig or buck deployment change),
// in which case the caller must treat every package as dirty.
func Plan(cellInfo *cells.Info, base *targetgraph.Targets, changes *Changes) (map[string]PackageStatus, bool) {
	for _, p := range changes.CellPaths() {
		if invalidatesGraph(p) {
			return nil, false
		}
	}

	res := make(map[string]PackageStatus)
	allPackages := packageSet(base)

	starlarkChanged, starlarkTouched := rerunStarlark(cellInfo, base, changes)
	for pkg := range starlarkChanged {
		res[pkg] = Present
	}

	for pkg := range rerunPackageFile(changes, starlarkTouched, allPackages) {
		res[pkg] = Present
	}

	for pkg := range rerunGlobs(changes, allPackages) {
		res[pkg] = Present
	}

	// Build-file existence is merged last and unconditionally overwrites:
	// it is the most authoritative signal about whether a package's
	// build file still exists at all.
	for pkg, status := range rerunBuildFileExistence(cellInfo, changes) {
		res[pkg] = status
	}

	return res, true
}

func packageSet(base *targetgraph.Targets) map[string]struct{} {
	out := map[string]struct{}{}
	for _, imp := range base.AllImports() {
		if imp.HasPackage {
			out[imp.Package.String()] = struct{}{}
		}
	}
	return out
}

// rerunStarlark figures out which packages are touched because a `.bzl`
// file they transitively import changed, and returns the set of files
// that were visited while answering that question (used by
// rerunPackageFile to catch newly-dirtied PACKAGE files).
func rerunStarlark(cellInfo *cells.Info, base *targetgraph.Targets, changes *Changes) (map[string]struct{}, map[string]struct{}) {
	type rdep struct {
		pkg       string
		hasPkg    bool
		importers []string
	}
	rdeps := make(map[string]*rdep)
	get := func(key string) *rdep {
		e, ok := rdeps[key]
		if !ok {
			e = &rdep{}
			rdeps[key] = e
		}
		return e
	}
	for _, imp := range base.AllImports() {
		fileKey := imp.File.String()
		if imp.HasPackage {
			e := get(fileKey)
			e.pkg = imp.Package.String()
			e.hasPkg = true
		}
		for _, dep := range imp.Imports {
			e := get(dep.String())
			e.importers = append(e.importers, fileKey)
		}
	}

	var todo []string
	done := make(map[string]struct{})
	for _, sp := range changes.StatusCellPaths() {
		if sp.Status == Modified || sp.Status == Removed {
			key := sp.Path.String()
			todo = append(todo, key)
			done[key] = struct{}{}
		}
	}

	res := make(map[string]struct{})
	for len(todo) > 0 {
		x := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		e, ok := rdeps[x]
		if !ok {
			continue
		}
		if e.hasPkg {
			res[e.pkg] = struct{}{}
		}
		for _, d := range e.importers {
			if _, seen := done[d]; !seen {
				done[d] = struct{}{}
				todo = append(todo, d)
			}
		}
	}

	for _, sp := range changes.StatusCellPaths() {
		if sp.Status == Modified && cellInfo.IsTargetFile(sp.Path) {
			res[sp.Path.Parent().AsPackage().String()] = struct{}{}
		}
	}

	return res, done
}

// rerunPackageFile handles PACKAGE files, which are implicitly consulted
// by every build file underneath them.
func rerunPackageFile(changes *Changes, starlarkTouched map[string]struct{}, allPackages map[string]struct{}) map[string]struct{} {
	resolver := pkgresolver.New[struct{}]()
	mark := func(file btypes.CellPath) {
		if file.IsPackageFile() {
			resolver.Insert(file.Parent().AsPackage(), struct{}{})
		}
	}
	for _, p := range changes.CellPaths() {
		mark(p)
	}
	for s := range starlarkTouched {
		mark(btypes.NewCellPath(s))
	}

	res := make(map[string]struct{})
	if resolver.IsEmpty() {
		return res
	}
	for pkgStr := range allPackages {
		if len(resolver.Get(btypes.NewPackage(pkgStr))) > 0 {
			res[pkgStr] = struct{}{}
		}
	}
	return res
}

// rerunBuildFileExistence reports packages whose build file itself was
// added or removed.
func rerunBuildFileExistence(cellInfo *cells.Info, changes *Changes) map[string]PackageStatus {
	result := make(map[string]PackageStatus)
	for _, sp := range changes.StatusCellPaths() {
		var status PackageStatus
		switch sp.Status {
		case Added:
			status = Present
		case Removed:
			status = Unknown
		default:
			continue
		}
		if !cellInfo.IsTargetFile(sp.Path) {
			continue
		}
		pkgStr := sp.Path.Parent().AsPackage().String()
		if status == Unknown {
			if _, ok := result[pkgStr]; !ok {
				result[pkgStr] = Unknown
			}
		} else {
			result[pkgStr] = Present
		}
	}
	return result
}

// rerunGlobs handles source files (visible only via glob, not named in
// any build file): an added or removed file may change what a glob
// matches in its closest enclosing package.
func rerunGlobs(changes *Changes, allPackages map[string]struct{}) map[string]struct{} {
	res := make(map[string]struct{})
	for _, sp := range changes.StatusCellPaths() {
		if sp.Status == Modified {
			continue
		}
		cell := sp.Path.Cell().String()
		dir, ok := parentDir(sp.Path.Path().String())
		for ok {
			potential := cell + "//" + dir
			if _, found := allPackages[potential]; found {
				res[potential] = struct{}{}
				break
			}
			dir, ok = parentDir(dir)
		}
	}
	return res
}

// parentDir mimics path.Path::parent() for slash-separated relative
// paths: the parent of "a/b/c" is "a/b", the parent of a single
// component "a" is "" (the containing directory's root), and "" has no
// parent.
func parentDir(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return "", true
	}
	return s[:i], true
}
