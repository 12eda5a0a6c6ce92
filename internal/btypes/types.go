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

// Package btypes defines the value objects of a Buck-style build graph:
// cells, paths, packages, target labels and patterns, rule types, globs,
// and the three graph-node shapes (BuckTarget, BuckImport, BuckError).
// All types are immutable once constructed.
package btypes

import (
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/buildtools/btd/internal/intern"
)

// TargetName is the bit after the `:` in `fbcode//build:buck2`.
type TargetName struct{ s intern.String }

func NewTargetName(name string) TargetName { return TargetName{intern.New(name)} }

func (n TargetName) String() string { return n.s.String() }
func (n TargetName) Equal(o TargetName) bool { return n.s.Equal(o.s) }

// TargetLabel is `<Package>:<TargetName>`, e.g. `fbcode//buck2:buck2`.
type TargetLabel struct{ s intern.String }

func NewTargetLabel(target string) TargetLabel { return TargetLabel{intern.New(target)} }

func (l TargetLabel) String() string     { return l.s.String() }
func (l TargetLabel) Equal(o TargetLabel) bool { return l.s.Equal(o.s) }
func (l TargetLabel) IsZero() bool       { return l.s.IsZero() }

// Package returns the owning package of the label.
//
//	TargetLabel("foo//bar/baz:qux").Package() == Package("foo//bar/baz")
func (l TargetLabel) Package() Package {
	pkg, _ := splitRight(l.String(), ':')
	return NewPackage(pkg)
}

// Key returns the (package, name) identity used for map lookups, mirroring
// label_key in the original implementation.
func (l TargetLabel) Key() (Package, TargetName) {
	pkg, name := splitRight(l.String(), ':')
	return NewPackage(pkg), NewTargetName(name)
}

func splitRight(s string, sep byte) (before, after string) {
	i := strings.LastIndexByte(s, sep)
	if i < 0 {
		panic("btypes: expected " + string(sep) + " in " + s)
	}
	return s[:i], s[i+1:]
}

// TargetPattern is one of three shapes: specific (`c//p:n`), package
// (`c//p:`), or recursive (`c//p/...`). Matching semantics are bit-exact
// with the source system; see TargetPattern.Matches.
type TargetPattern struct{ s string }

func NewTargetPattern(pattern string) TargetPattern { return TargetPattern{pattern} }

func (p TargetPattern) String() string { return p.s }

// IsSpecificTarget reports whether the pattern names exactly one target.
func (p TargetPattern) IsSpecificTarget() bool {
	i := strings.LastIndexByte(p.s, ':')
	if i < 0 {
		return false
	}
	return p.s[i+1:] != ""
}

// AsTargetLabel converts a specific pattern to its TargetLabel.
func (p TargetPattern) AsTargetLabel() (TargetLabel, bool) {
	if !p.IsSpecificTarget() {
		return TargetLabel{}, false
	}
	return NewTargetLabel(p.s), true
}

// AsPackagePattern converts a `c//p:`-shaped pattern to its Package.
func (p TargetPattern) AsPackagePattern() (Package, bool) {
	prefix, ok := strings.CutSuffix(p.s, ":")
	if !ok {
		return Package{}, false
	}
	return NewPackage(prefix), true
}

// AsRecursivePattern converts a `c//p/...`-shaped pattern to its Package.
func (p TargetPattern) AsRecursivePattern() (Package, bool) {
	prefix, ok := strings.CutSuffix(p.s, "...")
	if !ok {
		return Package{}, false
	}
	if trimmed, ok := strings.CutSuffix(prefix, "/"); ok && !strings.HasSuffix(trimmed, "/") {
		prefix = trimmed
	}
	return NewPackage(prefix), true
}

// Matches reports whether the pattern selects target.
func (p TargetPattern) Matches(target string) bool {
	if strings.HasSuffix(p.s, ":") {
		return strings.HasPrefix(target, p.s)
	}
	if prefix, ok := strings.CutSuffix(p.s, "/..."); ok {
		rest, ok := strings.CutPrefix(target, prefix)
		if !ok {
			return false
		}
		return strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "/")
	}
	return p.s == target
}

// MatchesLabel is a typed convenience wrapper over Matches.
func (p TargetPattern) MatchesLabel(target TargetLabel) bool { return p.Matches(target.String()) }

// MatchesPackage reports whether the pattern selects every target of pkg.
func (p TargetPattern) MatchesPackage(pkg Package) bool {
	s := pkg.String()
	if prefix, ok := strings.CutSuffix(p.s, ":"); ok {
		return prefix == s
	}
	if prefix, ok := strings.CutSuffix(p.s, "/..."); ok {
		rest, ok := strings.CutPrefix(s, prefix)
		if !ok {
			return false
		}
		return rest == "" || strings.HasPrefix(rest, "/")
	}
	return false
}

// CellName is the bare cell identifier, e.g. `fbcode`.
type CellName struct{ s string }

func NewCellName(cell string) CellName { return CellName{cell} }
func (c CellName) String() string      { return c.s }

// Join concatenates a cell and a cell-relative path into a CellPath.
func (c CellName) Join(path CellRelativePath) CellPath {
	return NewCellPath(c.s + "//" + path.s)
}

// CellRelativePath is a POSIX-style path with no leading slash, relative
// to a cell's root.
type CellRelativePath struct{ s string }

func NewCellRelativePath(path string) CellRelativePath { return CellRelativePath{path} }
func (p CellRelativePath) String() string              { return p.s }

// Parent returns the containing directory, or ok=false at the root.
func (p CellRelativePath) Parent() (CellRelativePath, bool) {
	i := strings.LastIndexByte(p.s, '/')
	if i < 0 {
		return CellRelativePath{}, false
	}
	return CellRelativePath{p.s[:i]}, true
}

// ProjectRelativePath is a POSIX path relative to the repository root.
type ProjectRelativePath struct{ s string }

func NewProjectRelativePath(path string) ProjectRelativePath { return ProjectRelativePath{path} }
func (p ProjectRelativePath) String() string                 { return p.s }

func (p ProjectRelativePath) Join(suffix string) ProjectRelativePath {
	if p.s == "" {
		return ProjectRelativePath{suffix}
	}
	return ProjectRelativePath{p.s + "/" + suffix}
}

func (p ProjectRelativePath) Extension() (string, bool) {
	return extensionOf(p.s)
}

func extensionOf(s string) (string, bool) {
	base := s
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		base = s[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return "", false
	}
	return base[i+1:], true
}

// CellPath is `<CellName>//<CellRelativePath>`. It must contain exactly
// one `//` substring.
type CellPath struct{ s intern.String }

// NewCellPath constructs a CellPath. It panics if path does not contain
// `//`, mirroring the invariant assertion in the source system: callers
// only ever build CellPath values from already-validated strings (JSON
// dump fields, cell-resolved paths), never directly from unchecked user
// input.
func NewCellPath(path string) CellPath {
	if !strings.Contains(path, "//") {
		panic("btypes: invalid CellPath, missing `//` from `" + path + "`")
	}
	return CellPath{intern.New(path)}
}

func (p CellPath) String() string          { return p.s.String() }
func (p CellPath) Equal(o CellPath) bool   { return p.s.Equal(o.s) }
func (p CellPath) IsZero() bool            { return p.s.IsZero() }

func (p CellPath) splitCell() (string, string) {
	s := p.String()
	i := strings.Index(s, "//")
	return s[:i], s[i+2:]
}

func (p CellPath) Cell() CellName { c, _ := p.splitCell(); return NewCellName(c) }

func (p CellPath) Path() CellRelativePath { _, r := p.splitCell(); return NewCellRelativePath(r) }

// Parent returns the containing directory as a CellPath.
func (p CellPath) Parent() CellPath {
	rel := p.Path()
	if parent, ok := rel.Parent(); ok {
		return NewCellPath(p.Cell().String() + "//" + parent.String())
	}
	return NewCellPath(p.Cell().String() + "//")
}

// AsPackage reinterprets a CellPath known to sit on a package boundary
// (e.g. the path of a build file) as a Package.
func (p CellPath) AsPackage() Package { return Package{p.s} }

func (p CellPath) Extension() (string, bool) { return extensionOf(p.String()) }

// IsTargetFile reports whether the path names a build file for its cell,
// accounting for the `.v2` suffix convention.
func (p CellPath) IsTargetFile() bool {
	contents := p.String()
	cell, _ := p.splitCell()
	suffix := strings.TrimSuffix(contents, ".v2")
	base := cellBuildFile(cell)
	rest, ok := strings.CutSuffix(suffix, base)
	if !ok {
		return false
	}
	return strings.HasSuffix(rest, "/")
}

// IsPackageFile reports whether the path is a PACKAGE file.
func (p CellPath) IsPackageFile() bool { return strings.HasSuffix(p.String(), "/PACKAGE") }

// IsPreludeBzlFile reports whether the path is a `.bzl` file inside the
// `prelude` cell.
func (p CellPath) IsPreludeBzlFile() bool {
	s := p.String()
	return strings.HasPrefix(s, "prelude//") && strings.HasSuffix(s, ".bzl")
}

// cellBuildFile returns the unversioned build-file basename used by a
// cell by default (before cell-config overlay), per spec.md §4.C.
func cellBuildFile(cell string) string {
	switch cell {
	case "fbcode", "prelude", "toolchains":
		return "TARGETS"
	default:
		return "BUCK"
	}
}

// Package is a CellPath known to name a directory containing a build
// file; it is the namespace for its targets.
type Package struct{ s intern.String }

func NewPackage(pkg string) Package { return Package{intern.New(pkg)} }

func (p Package) String() string        { return p.s.String() }
func (p Package) Equal(o Package) bool  { return p.s.Equal(o.s) }
func (p Package) IsZero() bool          { return p.s.IsZero() }

// Join builds the TargetLabel for name within the package.
func (p Package) Join(name TargetName) TargetLabel {
	return NewTargetLabel(p.String() + ":" + name.String())
}

// JoinPath builds a CellPath for a file relative to the package directory.
func (p Package) JoinPath(path string) CellPath {
	return NewCellPath(p.String() + "/" + path)
}

func (p Package) Cell() CellName { c, _ := (CellPath{p.s}).splitCell(); return NewCellName(c) }

// AsPattern returns the package-shaped TargetPattern (`c//p:`).
func (p Package) AsPattern() TargetPattern { return NewTargetPattern(p.String() + ":") }

// AsCellPath reinterprets the package as the CellPath of its directory.
func (p Package) AsCellPath() CellPath { return CellPath{p.s} }

// RuleType is a TargetLabel pointing at the rule definition file, e.g.
// `prelude//rules.bzl:genrule`.
type RuleType struct{ label TargetLabel }

func NewRuleType(rule string) RuleType { return RuleType{NewTargetLabel(rule)} }

func (r RuleType) String() string { return r.label.String() }

// Short returns the text after the final `:`.
func (r RuleType) Short() string {
	s := r.label.String()
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// File returns the CellPath of the file that defines the rule.
func (r RuleType) File() CellPath {
	s := r.label.String()
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return NewCellPath(s[:i])
	}
	return NewCellPath(s)
}

// Oncall is the team responsible for a target, e.g. `ci_efficiency`.
type Oncall struct{ s intern.String }

func NewOncall(oncall string) Oncall { return Oncall{intern.New(oncall)} }
func (o Oncall) String() string      { return o.s.String() }
func (o Oncall) Equal(other Oncall) bool { return o.s.Equal(other.s) }

// TargetHash is an opaque hash over a target's configuration, computed
// upstream of this system. The raw hash string is canonicalized into a
// content digest so that equality comparisons go through go-digest's
// Digest type rather than raw string comparison.
type TargetHash struct{ d digest.Digest }

func NewTargetHash(hash string) TargetHash {
	if hash == "" {
		return TargetHash{}
	}
	return TargetHash{digest.FromString(hash)}
}

func (h TargetHash) String() string          { return h.d.String() }
func (h TargetHash) Equal(o TargetHash) bool { return h.d == o.d }
func (h TargetHash) IsZero() bool            { return h.d == "" }

// Glob is a raw Buck-dialect glob pattern; see package glob for matching
// semantics.
type Glob struct{ s string }

func NewGlob(pattern string) Glob { return Glob{pattern} }
func (g Glob) String() string     { return g.s }
