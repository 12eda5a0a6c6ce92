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

// Package rerun decides, from a list of source-control changes, which
// packages must be re-evaluated at the diff revision (or whether the
// whole graph must be reloaded unconditionally).
package rerun

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/cells"
)

// Status is the source-control status of a single changed path.
type Status int

const (
	Added Status = iota
	Modified
	Removed
)

// StatusPath pairs a change status with the cell-qualified path it
// applies to.
type StatusPath struct {
	Status Status
	Path   btypes.CellPath
}

// Changes is the eagerly-derived view of a change list: the raw
// status/path pairs, a parallel list of bare CellPaths, a parallel list
// of project-relative paths, and a membership set over the CellPaths.
type Changes struct {
	items        []StatusPath
	cellPaths    []btypes.CellPath
	cellPathSet  map[string]struct{}
	projectPaths []btypes.ProjectRelativePath
}

// Testing builds a Changes directly from status/path pairs, for tests
// that don't need real project-relative-path round-tripping. It derives
// a stand-in project path from the cell-relative portion of each
// CellPath, discarding the cell prefix.
func Testing(items []StatusPath) *Changes {
	c := &Changes{items: items}
	c.cellPaths = make([]btypes.CellPath, len(items))
	c.cellPathSet = make(map[string]struct{}, len(items))
	c.projectPaths = make([]btypes.ProjectRelativePath, len(items))
	for i, it := range items {
		c.cellPaths[i] = it.Path
		c.cellPathSet[it.Path.String()] = struct{}{}
		c.projectPaths[i] = btypes.NewProjectRelativePath(it.Path.Path().String())
	}
	return c
}

// Parse reads a changes file: one line per change, `<T> <path>` where T
// is A(dded), M(odified) or R(emoved) and path is project-relative.
func Parse(r io.Reader, info *cells.Info) (*Changes, error) {
	scanner := bufio.NewScanner(r)
	var items []StatusPath
	var projectPaths []btypes.ProjectRelativePath
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("rerun: line %d: malformed change line %q", lineNo, line)
		}
		var status Status
		switch t {
		case "A":
			status = Added
		case "M":
			status = Modified
		case "R":
			status = Removed
		default:
			return nil, fmt.Errorf("rerun: line %d: unknown status %q", lineNo, t)
		}
		projectPath := btypes.NewProjectRelativePath(rest)
		cellPath, err := info.Unresolve(projectPath)
		if err != nil {
			return nil, fmt.Errorf("rerun: line %d: %w", lineNo, err)
		}
		items = append(items, StatusPath{Status: status, Path: cellPath})
		projectPaths = append(projectPaths, projectPath)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("rerun: %w", err)
	}
	c := Testing(items)
	c.projectPaths = projectPaths
	return c, nil
}

// StatusCellPaths returns every change with its status.
func (c *Changes) StatusCellPaths() []StatusPath { return c.items }

// CellPaths returns the bare paths of every change.
func (c *Changes) CellPaths() []btypes.CellPath { return c.cellPaths }

// ProjectPaths returns the repository-root-relative paths of every
// change.
func (c *Changes) ProjectPaths() []btypes.ProjectRelativePath { return c.projectPaths }

// IsEmpty reports whether there are no changes at all.
func (c *Changes) IsEmpty() bool { return len(c.items) == 0 }

// Contains reports whether p is among the changed paths.
func (c *Changes) Contains(p btypes.CellPath) bool {
	_, ok := c.cellPathSet[p.String()]
	return ok
}

// ContainsPackage reports whether a package's own directory path (not
// any file inside it) is itself among the changed paths. This supports
// the "hidden feature" of passing a directory path in a changes file to
// force recomputation of everything that depends on that package.
func (c *Changes) ContainsPackage(pkg btypes.Package) bool {
	return c.Contains(pkg.AsCellPath())
}

// FilterByExtension returns the subset of changes whose path extension
// satisfies keep. keep receives ("", false) for extensionless paths.
func (c *Changes) FilterByExtension(keep func(ext string, ok bool) bool) *Changes {
	var items []StatusPath
	for _, it := range c.items {
		ext, ok := it.Path.Extension()
		if keep(ext, ok) {
			items = append(items, it)
		}
	}
	return Testing(items)
}
