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

package impact

import (
	"encoding/json"

	"github.com/buildtools/btd/internal/btypes"
)

// RootCauseKind is why a target was classified as an immediate,
// recursive change: which of ImmediateTargetChanges's checks tripped.
type RootCauseKind int

const (
	CauseInputs RootCauseKind = iota
	CauseHash
	CausePackageValues
	CauseRuleChange
	CauseCISrcs
	CausePackageTouch
)

func (k RootCauseKind) String() string {
	switch k {
	case CauseInputs:
		return "inputs"
	case CauseHash:
		return "hash"
	case CausePackageValues:
		return "package_values"
	case CauseRuleChange:
		return "rule_change"
	case CauseCISrcs:
		return "ci_srcs"
	case CausePackageTouch:
		return "package_touch"
	default:
		return "unknown"
	}
}

func (k RootCauseKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

// RootCause names the target whose immediate change set off a chain of
// impact, and which check on that target tripped.
type RootCause struct {
	Label btypes.TargetLabel
	Kind  RootCauseKind
}

func (c RootCause) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{c.Label.String(), c.Kind})
}

// TraceData explains why one specific output record is present: the
// dependency edge that pulled it in (AffectedDep, empty for an
// immediately-changed target), whether it's a leaf of this trace
// (IsTerminal), and the original RootCause that started the chain.
type TraceData struct {
	AffectedDep btypes.TargetLabel
	IsTerminal  bool
	RootCause   RootCause
}

type traceDataJSON struct {
	AffectedDep string    `json:"affected_dep"`
	IsTerminal  bool      `json:"is_terminal"`
	RootCause   RootCause `json:"root_cause"`
}

func (d TraceData) MarshalJSON() ([]byte, error) {
	return json.Marshal(traceDataJSON{
		AffectedDep: d.AffectedDep.String(),
		IsTerminal:  d.IsTerminal,
		RootCause:   d.RootCause,
	})
}

// ImmediateCause builds the TraceData for a target found directly by
// ImmediateTargetChanges: it is its own root cause, and not (yet) known
// to be terminal.
func ImmediateCause(target *btypes.BuckTarget, kind RootCauseKind) TraceData {
	return TraceData{
		RootCause: RootCause{Label: target.Label(), Kind: kind},
	}
}

// Propagate builds the TraceData for a target reached transitively from
// parent, which itself carries parentReason.
func Propagate(parent *btypes.BuckTarget, parentReason TraceData, isTerminal bool) TraceData {
	return TraceData{
		AffectedDep: parent.Label(),
		IsTerminal:  isTerminal,
		RootCause:   parentReason.RootCause,
	}
}
