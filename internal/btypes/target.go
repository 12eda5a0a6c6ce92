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

package btypes

// LabelKey is the (package, name) identity used to correlate a target
// between the base and diff graphs, independent of any interning detail.
type LabelKey struct {
	Package string
	Name    string
}

// BuckTarget is a build graph node describing one configured target.
type BuckTarget struct {
	Package Package
	Name    TargetName

	RuleType RuleType
	Oncall   Oncall
	HasOncall bool
	Labels   Labels

	Deps   []TargetLabel
	Inputs []CellPath

	CISrcs []Glob
	CIDeps []TargetPattern

	Hash TargetHash

	PackageValues PackageValues
}

// Label returns the fully-qualified TargetLabel for this target.
func (t *BuckTarget) Label() TargetLabel { return t.Package.Join(t.Name) }

// LabelKey returns the (package, name) identity of this target.
func (t *BuckTarget) LabelKey() LabelKey {
	return LabelKey{Package: t.Package.String(), Name: t.Name.String()}
}

// BuckImport is a build graph node recording the `.bzl` files one file
// loads, used to build the reverse-imports graph for dirty-`.bzl`
// propagation.
type BuckImport struct {
	File    CellPath
	Imports []CellPath

	Package   Package
	HasPackage bool
}

// BuckError is a build graph node recording a parse/evaluation error
// attributed to a package.
type BuckError struct {
	Package Package
	Error   string
}
