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

// Package graphsize computes the transitive dependency count of a
// target: how many targets would need to build, directly or indirectly,
// to build this one. GraphSize reports that count at both the base and
// diff revisions, so a caller can see whether a change grew or shrank a
// target's build footprint.
package graphsize

import (
	"golang.org/x/sync/errgroup"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/targetgraph"
)

// TargetsSize answers transitive-dependency-count queries against one
// revision of the build graph.
type TargetsSize struct {
	depsOne map[string][]btypes.TargetLabel
}

// NewTargetsSize indexes every target's direct deps for DFS lookups.
func NewTargetsSize(data *targetgraph.Targets) *TargetsSize {
	targets := data.AllTargets()
	s := &TargetsSize{depsOne: make(map[string][]btypes.TargetLabel, len(targets))}
	for _, x := range targets {
		s.depsOne[x.Label().String()] = x.Deps
	}
	return s
}

func (s *TargetsSize) dfs(label btypes.TargetLabel, visited map[string]struct{}) {
	key := label.String()
	if _, ok := visited[key]; ok {
		return
	}
	visited[key] = struct{}{}
	for _, d := range s.depsOne[key] {
		s.dfs(d, visited)
	}
}

// Get returns the number of targets reachable from label via deps
// edges, including label itself. Cycles are handled: a target already
// visited in this DFS is not revisited.
func (s *TargetsSize) Get(label btypes.TargetLabel) int {
	visited := make(map[string]struct{})
	s.dfs(label, visited)
	return len(visited)
}

// GraphSize pairs a base and diff TargetsSize, so a target's footprint
// can be compared across the two revisions.
type GraphSize struct {
	Base *TargetsSize
	Diff *TargetsSize
}

// New indexes both revisions.
func New(base, diff *targetgraph.Targets) *GraphSize {
	return &GraphSize{Base: NewTargetsSize(base), Diff: NewTargetsSize(diff)}
}

// Sizes is a target's transitive dependency count before and after a
// change.
type Sizes struct {
	Before int
	After  int
}

// BatchSizes computes Sizes for every target in targets concurrently;
// each DFS is independent, so this is a plain fan-out over errgroup.
func (g *GraphSize) BatchSizes(targets []*btypes.BuckTarget) []Sizes {
	sizes := make([]Sizes, len(targets))
	var grp errgroup.Group
	for i, t := range targets {
		i, t := i, t
		grp.Go(func() error {
			label := t.Label()
			sizes[i] = Sizes{Before: g.Base.Get(label), After: g.Diff.Get(label)}
			return nil
		})
	}
	_ = grp.Wait()
	return sizes
}
