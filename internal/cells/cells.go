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

// Package cells resolves Buck cell names to repository-relative paths
// and back, and holds each cell's configured build-file name overlay.
package cells

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/buildtools/btd/internal/btypes"
)

type cellData struct {
	path       btypes.ProjectRelativePath
	buildFiles []string
}

// Info maps cell names to project-relative path prefixes and build-file
// name lists, constructed once from a cells JSON dump and an optional
// build-file-name config overlay.
type Info struct {
	cells map[string]cellData
	// paths is sorted longest-prefix-first, so unresolve finds the most
	// specific cell for a given project path.
	paths []pathEntry
}

type pathEntry struct {
	cell btypes.CellName
	path btypes.ProjectRelativePath
}

// Empty returns a cell table with no cells, useful only for testing.
func Empty() *Info {
	return &Info{cells: map[string]cellData{}}
}

// Parse builds an Info from the raw JSON `{cell_name: absolute_path}`
// cells dump and an optional `{"cell//buildfile.name[_v2]": "a,b"}`
// config overlay (pass nil to use the hardcoded defaults only).
func Parse(cellsJSON []byte, configJSON []byte) (*Info, error) {
	raw := map[string]string{}
	if err := json.Unmarshal(cellsJSON, &raw); err != nil {
		return nil, fmt.Errorf("cells: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("cells: empty JSON object for the cells")
	}

	prefix := ""
	for _, v := range raw {
		if prefix == "" || len(v) < len(prefix) {
			prefix = v
		}
	}

	cellsMap := make(map[string]cellData, len(raw))
	for k, v := range raw {
		rest, ok := strings.CutPrefix(v, prefix)
		if !ok {
			return nil, fmt.Errorf("cells: expected key %q to start with %q, but got %q", k, prefix, v)
		}
		cellsMap[k] = cellData{
			path:       btypes.NewProjectRelativePath(strings.TrimPrefix(rest, "/")),
			buildFiles: append([]string(nil), defaultBuildFiles(k)...),
		}
	}

	if len(configJSON) > 0 {
		if err := applyConfigOverlay(cellsMap, configJSON); err != nil {
			return nil, err
		}
	}

	return &Info{cells: cellsMap, paths: createPaths(cellsMap)}, nil
}

// applyConfigOverlay applies a `{"<cell>//buildfile.name[_v2]": "a,b,c"}`
// mapping onto the per-cell build-file lists. The non-`v2` key is applied
// first, with each configured name N expanded to [N.v2, N]; the `_v2` key
// is applied second, verbatim, so it wins when both are present.
func applyConfigOverlay(cellsMap map[string]cellData, configJSON []byte) error {
	raw := map[string]string{}
	if err := json.Unmarshal(configJSON, &raw); err != nil {
		return fmt.Errorf("cells: %w", err)
	}

	type entry struct {
		cell string
		v2   bool
		list []string
	}
	var entries []entry
	for k, v := range raw {
		cell, key, ok := strings.Cut(k, "//")
		if !ok || key != "buildfile.name" && key != "buildfile.name_v2" {
			continue
		}
		var list []string
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			list = append(list, name)
		}
		entries = append(entries, entry{cell: cell, v2: key == "buildfile.name_v2", list: list})
	}
	// Apply `name` before `name_v2` (later writes win), and within each
	// pass sort by cell name for determinism.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].v2 != entries[j].v2 {
			return !entries[i].v2
		}
		return entries[i].cell < entries[j].cell
	})
	for _, e := range entries {
		data, ok := cellsMap[e.cell]
		if !ok {
			continue
		}
		if e.v2 {
			data.buildFiles = e.list
		} else {
			var expanded []string
			for _, n := range e.list {
				expanded = append(expanded, n+".v2", n)
			}
			data.buildFiles = expanded
		}
		cellsMap[e.cell] = data
	}
	return nil
}

func createPaths(cellsMap map[string]cellData) []pathEntry {
	paths := make([]pathEntry, 0, len(cellsMap))
	for k, v := range cellsMap {
		paths = append(paths, pathEntry{cell: btypes.NewCellName(k), path: v.path})
	}
	sort.SliceStable(paths, func(i, j int) bool {
		li, lj := len(paths[i].path.String()), len(paths[j].path.String())
		if li != lj {
			return li > lj
		}
		return paths[i].cell.String() < paths[j].cell.String()
	})
	return paths
}

// Resolve converts a cell-qualified path to a project-relative path.
func (info *Info) Resolve(path btypes.CellPath) (btypes.ProjectRelativePath, error) {
	data, ok := info.cells[path.Cell().String()]
	if !ok {
		return btypes.ProjectRelativePath{}, fmt.Errorf("cells: unknown cell %q", path.String())
	}
	return data.path.Join(path.Path().String()), nil
}

// Unresolve converts a project-relative path back to a cell-qualified
// path, using the longest matching cell prefix.
func (info *Info) Unresolve(path btypes.ProjectRelativePath) (btypes.CellPath, error) {
	s := path.String()
	for _, e := range info.paths {
		if rest, ok := strings.CutPrefix(s, e.path.String()); ok {
			rest = strings.TrimPrefix(rest, "/")
			return e.cell.Join(btypes.NewCellRelativePath(rest)), nil
		}
	}
	return btypes.CellPath{}, fmt.Errorf("cells: path %q has no cell prefix", s)
}

// IsTargetFile reports whether path names one of its cell's configured
// build files, honoring any buildfile-name config overlay rather than
// just the hardcoded default names.
func (info *Info) IsTargetFile(path btypes.CellPath) bool {
	s := path.String()
	base := s
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		base = s[i+1:]
	}
	for _, name := range info.BuildFiles(path.Cell()) {
		if base == name {
			return true
		}
	}
	return false
}

// BuildFiles returns the ordered list of build-file basenames (most
// preferred first) configured for cell, falling back to the hardcoded
// defaults for cells absent from the table.
func (info *Info) BuildFiles(cell btypes.CellName) []string {
	if data, ok := info.cells[cell.String()]; ok {
		return data.buildFiles
	}
	return defaultBuildFiles(cell.String())
}

func defaultBuildFiles(cell string) []string {
	if cell == "fbcode" || cell == "prelude" || cell == "toolchains" {
		return []string{"TARGETS.v2", "TARGETS"}
	}
	return []string{"BUCK.v2", "BUCK"}
}
