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

// Package jsonsel decodes Buck's `select()`/`concat()` JSON shapes for
// list-valued target attributes (labels, ci_deps, ci_srcs), and
// flattens them into a single ordered list of strings. A select() branches
// on configuration; this analyzer never resolves a configuration, so the
// correct semantics is to take every branch's contribution.
//
// Two related shapes occur in target dumps:
//
//   - a whole attribute wrapped in select()/concat(), e.g.
//     {"__type":"selector","entries":{"cfg1":["a"],"cfg2":["b"]}}
//     which flattens to ["a","b"] regardless of __type (selector and
//     concat both just union their branches' elements at this level);
//   - a single list element itself wrapped in select()/concat(), e.g.
//     ["a", {"__type":"concat","items": [{"__type":"selector", ...}, "x"]}]
//     where a selector fans out into multiple alternative scalar values
//     (flat_map) but a concat joins the first value of each branch by
//     string concatenation, since concatenating a cross product of
//     alternatives would be quadratic.
package jsonsel

import (
	"encoding/json"
	"fmt"
	"sort"
)

type wrapper struct {
	Type string `json:"__type"`
}

// FlattenList decodes an attribute value that is either a plain JSON
// array (each element possibly itself a select()/concat() scalar) or a
// top-level select()/concat() object whose branches are themselves
// list-shaped, returning the fully flattened list of strings.
func FlattenList(raw json.RawMessage) ([]string, error) {
	raw = trimNull(raw)
	if raw == nil {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, err
		}
		var out []string
		for _, e := range elems {
			vals, err := FlattenScalar(e)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	case '{':
		var w wrapper
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		branches, err := selectBranches(raw, w)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, b := range branches {
			vals, err := FlattenList(b)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("jsonsel: expected an array or select expression, got %q", string(raw))
	}
}

// FlattenScalar decodes a single list element that may be a plain string
// or a select()/concat() wrapping scalar branches. A selector fans out
// into one result per branch; a concat joins the first value of each
// branch into a single concatenated string.
func FlattenScalar(raw json.RawMessage) ([]string, error) {
	raw = trimNull(raw)
	if raw == nil {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	case '{':
		var w wrapper
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		branches, err := selectBranches(raw, w)
		if err != nil {
			return nil, err
		}
		switch w.Type {
		case "selector":
			var out []string
			for _, b := range branches {
				vals, err := FlattenScalar(b)
				if err != nil {
					return nil, err
				}
				out = append(out, vals...)
			}
			return out, nil
		case "concat":
			var joined string
			for _, b := range branches {
				vals, err := FlattenScalar(b)
				if err != nil {
					return nil, err
				}
				if len(vals) > 0 {
					joined += vals[0]
				}
			}
			return []string{joined}, nil
		default:
			return nil, fmt.Errorf("jsonsel: unknown __type %q", w.Type)
		}
	default:
		return nil, fmt.Errorf("jsonsel: expected a string or select expression, got %q", string(raw))
	}
}

// selectBranches extracts the ordered branch values of a select()/concat()
// object: "entries" (a map, order discarded — selects are unordered by
// configuration) for "selector", "items" (an array) for "concat".
func selectBranches(raw json.RawMessage, w wrapper) ([]json.RawMessage, error) {
	switch w.Type {
	case "selector":
		var obj struct {
			Entries map[string]json.RawMessage `json:"entries"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		// Entries are unordered by configuration; sort by key so that
		// flattening is deterministic, matching a serde_json map decoded
		// without order preservation (lexicographic by key).
		keys := make([]string, 0, len(obj.Entries))
		for k := range obj.Entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		branches := make([]json.RawMessage, 0, len(keys))
		for _, k := range keys {
			branches = append(branches, obj.Entries[k])
		}
		return branches, nil
	case "concat":
		var obj struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		return obj.Items, nil
	default:
		return nil, fmt.Errorf("jsonsel: expecting a __type of selector or concat, got %q", w.Type)
	}
}

func trimNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
