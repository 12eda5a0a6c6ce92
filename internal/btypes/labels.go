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

import "encoding/json"

// Labels is an ordered, possibly-duplicated set of string labels attached
// to a target or a package. Order is significant: downstream consumers
// that dedupe by first occurrence rely on earlier entries winning.
type Labels []string

// NewLabels builds a Labels value from a literal slice.
func NewLabels(labels ...string) Labels {
	if len(labels) == 0 {
		return nil
	}
	out := make(Labels, len(labels))
	copy(out, labels)
	return out
}

func (l Labels) IsEmpty() bool { return len(l) == 0 }

func (l Labels) Contains(label string) bool {
	for _, x := range l {
		if x == label {
			return true
		}
	}
	return false
}

// Merge concatenates l and other, in that order.
func (l Labels) Merge(other Labels) Labels {
	out := make(Labels, 0, len(l)+len(other))
	out = append(out, l...)
	out = append(out, other...)
	return out
}

// Merge3 concatenates l, other and third, in that order.
func (l Labels) Merge3(other, third Labels) Labels {
	out := make(Labels, 0, len(l)+len(other)+len(third))
	out = append(out, l...)
	out = append(out, other...)
	out = append(out, third...)
	return out
}

func (l Labels) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// PackageValues carries the PACKAGE-file-level metadata that overlays a
// target's own labels: `citadel.labels` and an arbitrary JSON blob of
// configuration modifiers this system does not interpret.
type PackageValues struct {
	Labels       Labels          `json:"citadel.labels,omitempty"`
	CfgModifiers json.RawMessage `json:"buck.cfg_modifiers,omitempty"`
}

func NewPackageValues(labels ...string) PackageValues {
	return PackageValues{Labels: NewLabels(labels...)}
}

func (v PackageValues) IsEmpty() bool { return v.Labels.IsEmpty() }
