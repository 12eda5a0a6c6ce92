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

// Package output builds the per-target records the driver writes out,
// and serializes them as a pretty JSON array, JSON lines, or plain text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mpvl/unique"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/impact"
)

// Output is one impacted target, ready to report: its label, rule type,
// oncall, the depth it was reached at, its merged labels, and why it's
// here.
type Output struct {
	Target btypes.TargetLabel
	Type   string
	Oncall *string
	Depth  uint64
	Labels btypes.Labels
	Reason impact.TraceData
}

// FromTarget builds an Output for x. additionalLabels implicit from
// uses_sudo: if x transitively uses sudo but doesn't carry the label
// itself, "uses_sudo" is added so downstream consumers see it without
// having to also consult the sudo propagation pass.
//
// Label precedence: package values come first, then the target's own
// labels, then the synthesized uses_sudo label, so a consumer that keeps
// the first occurrence of a label sees the package-level one.
func FromTarget(x *btypes.BuckTarget, depth uint64, usesSudo bool, reason impact.TraceData) Output {
	var additional btypes.Labels
	if usesSudo && !x.Labels.Contains("uses_sudo") {
		additional = btypes.NewLabels("uses_sudo")
	}

	var oncall *string
	if x.HasOncall {
		s := x.Oncall.String()
		oncall = &s
	}

	return Output{
		Target: x.Label(),
		Type:   x.RuleType.Short(),
		Oncall: oncall,
		Depth:  depth,
		Labels: x.PackageValues.Labels.Merge3(x.Labels, additional),
		Reason: reason,
	}
}

type outputJSON struct {
	Target string           `json:"target"`
	Type   string           `json:"type"`
	Oncall *string          `json:"oncall"`
	Depth  uint64           `json:"depth"`
	Labels btypes.Labels    `json:"labels"`
	Reason impact.TraceData `json:"reason"`
}

// MarshalJSON renders the shape a consumer of btd's output expects:
// target as a plain string label, oncall as a string or null.
func (o Output) MarshalJSON() ([]byte, error) {
	return json.Marshal(outputJSON{
		Target: o.Target.String(),
		Type:   o.Type,
		Oncall: o.Oncall,
		Depth:  o.Depth,
		Labels: o.Labels,
		Reason: o.Reason,
	})
}

// String renders a single-line JSON form, e.g. for JSON-lines output.
func (o Output) String() string {
	b, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Format selects how WriteAll renders a batch of Outputs.
type Format int

const (
	// Text writes "Level N" headers, one per depth present in outputs,
	// each followed by that depth's sorted, deduplicated target labels.
	Text Format = iota
	// JSON writes a single pretty-printed JSON array.
	JSON
	// JSONLines writes one compact JSON object per line.
	JSONLines
)

// WriteAll serializes outputs in the given format.
func WriteAll(w io.Writer, format Format, outputs []Output) error {
	switch format {
	case JSON:
		return writeJSON(w, outputs)
	case JSONLines:
		return writeJSONLines(w, outputs)
	default:
		return writeText(w, outputs)
	}
}

func writeJSON(w io.Writer, outputs []Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outputs)
}

func writeJSONLines(w io.Writer, outputs []Output) error {
	enc := json.NewEncoder(w)
	for _, o := range outputs {
		if err := enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}

// writeText groups outputs by depth and writes a "Level N" header
// followed by that level's sorted, deduplicated labels.
func writeText(w io.Writer, outputs []Output) error {
	byDepth := make(map[uint64][]string)
	var depths []uint64
	for _, o := range outputs {
		if _, ok := byDepth[o.Depth]; !ok {
			depths = append(depths, o.Depth)
		}
		byDepth[o.Depth] = append(byDepth[o.Depth], o.Target.String())
	}
	sort.Slice(depths, func(i, j int) bool { return depths[i] < depths[j] })

	for _, depth := range depths {
		if _, err := fmt.Fprintf(w, "Level %d\n", depth); err != nil {
			return err
		}
		ss := sort.StringSlice(byDepth[depth])
		n := unique.Sort(ss)
		for _, l := range ss[:n] {
			if _, err := fmt.Fprintln(w, l); err != nil {
				return err
			}
		}
	}
	return nil
}
