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

package targetgraph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/jsonsel"
)

// LoadFile reads a JSON-lines target dump from path, transparently
// decompressing it when the name ends in `.zst`.
func LoadFile(path string) (*Targets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("targetgraph: %w", err)
	}
	defer f.Close()
	return Load(f, strings.HasSuffix(path, ".zst"))
}

// Load decodes a JSON-lines target dump. Each line is a Target, an
// Import, or an Error, distinguished by which marker field is present.
func Load(r io.Reader, compressed bool) (*Targets, error) {
	reader := r
	if compressed {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("targetgraph: opening zstd stream: %w", err)
		}
		defer zr.Close()
		reader = zr
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var entries []Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		entry, err := decodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("targetgraph: line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("targetgraph: %w", err)
	}
	return New(entries), nil
}

func decodeLine(raw []byte) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Entry{}, err
	}
	switch {
	case fields["buck.file"] != nil:
		return decodeImport(fields)
	case fields["buck.error"] != nil:
		return decodeError(fields)
	default:
		return decodeTarget(fields)
	}
}

func decodeTarget(fields map[string]json.RawMessage) (Entry, error) {
	var typ, pkg, name string
	if err := unmarshalField(fields, "buck.type", &typ); err != nil {
		return Entry{}, err
	}
	if err := unmarshalField(fields, "buck.package", &pkg); err != nil {
		return Entry{}, err
	}
	if err := unmarshalField(fields, "name", &name); err != nil {
		return Entry{}, err
	}

	t := &btypes.BuckTarget{
		Package:  btypes.NewPackage(pkg),
		Name:     btypes.NewTargetName(name),
		RuleType: btypes.NewRuleType(typ),
	}

	if raw := fields["buck.oncall"]; raw != nil {
		var oncall string
		if err := json.Unmarshal(raw, &oncall); err == nil && oncall != "" {
			t.Oncall = btypes.NewOncall(oncall)
			t.HasOncall = true
		}
	}

	labels, err := flattenStrings(fields["labels"])
	if err != nil {
		return Entry{}, fmt.Errorf("labels: %w", err)
	}
	t.Labels = btypes.NewLabels(labels...)

	depStrs, err := flattenStrings(fields["buck.deps"])
	if err != nil {
		return Entry{}, fmt.Errorf("buck.deps: %w", err)
	}
	for _, s := range depStrs {
		t.Deps = append(t.Deps, btypes.NewTargetLabel(s))
	}

	inputStrs, err := flattenStrings(fields["buck.inputs"])
	if err != nil {
		return Entry{}, fmt.Errorf("buck.inputs: %w", err)
	}
	for _, s := range inputStrs {
		t.Inputs = append(t.Inputs, btypes.NewCellPath(s))
	}

	ciSrcStrs, err := flattenStrings(fields["ci_srcs"])
	if err != nil {
		return Entry{}, fmt.Errorf("ci_srcs: %w", err)
	}
	for _, s := range ciSrcStrs {
		t.CISrcs = append(t.CISrcs, btypes.NewGlob(s))
	}

	ciDepStrs, err := flattenStrings(fields["ci_deps"])
	if err != nil {
		return Entry{}, fmt.Errorf("ci_deps: %w", err)
	}
	for _, s := range ciDepStrs {
		t.CIDeps = append(t.CIDeps, btypes.NewTargetPattern(s))
	}

	if raw := fields["buck.hash"]; raw != nil {
		var hash string
		if err := json.Unmarshal(raw, &hash); err == nil {
			t.Hash = btypes.NewTargetHash(hash)
		}
	}

	if raw := fields["buck.package_values"]; raw != nil {
		pv, err := decodePackageValues(raw)
		if err != nil {
			return Entry{}, fmt.Errorf("buck.package_values: %w", err)
		}
		t.PackageValues = pv
	}

	return Entry{Kind: KindTarget, Target: t}, nil
}

func decodeImport(fields map[string]json.RawMessage) (Entry, error) {
	var file string
	if err := unmarshalField(fields, "buck.file", &file); err != nil {
		return Entry{}, err
	}
	imp := &btypes.BuckImport{File: btypes.NewCellPath(file)}

	importStrs, err := flattenStrings(fields["buck.imports"])
	if err != nil {
		return Entry{}, fmt.Errorf("buck.imports: %w", err)
	}
	for _, s := range importStrs {
		imp.Imports = append(imp.Imports, btypes.NewCellPath(s))
	}

	if raw := fields["buck.package"]; raw != nil {
		var pkg string
		if err := json.Unmarshal(raw, &pkg); err == nil && pkg != "" {
			imp.Package = btypes.NewPackage(pkg)
			imp.HasPackage = true
		}
	}

	return Entry{Kind: KindImport, Import: imp}, nil
}

func decodeError(fields map[string]json.RawMessage) (Entry, error) {
	var pkg, msg string
	if err := unmarshalField(fields, "buck.package", &pkg); err != nil {
		return Entry{}, err
	}
	if err := unmarshalField(fields, "buck.error", &msg); err != nil {
		return Entry{}, err
	}
	return Entry{Kind: KindError, Error: &btypes.BuckError{Package: btypes.NewPackage(pkg), Error: msg}}, nil
}

func decodePackageValues(raw json.RawMessage) (btypes.PackageValues, error) {
	var obj struct {
		Labels       json.RawMessage `json:"citadel.labels"`
		CfgModifiers json.RawMessage `json:"buck.cfg_modifiers"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return btypes.PackageValues{}, err
	}
	labels, err := flattenStrings(obj.Labels)
	if err != nil {
		return btypes.PackageValues{}, err
	}
	return btypes.PackageValues{Labels: btypes.NewLabels(labels...), CfgModifiers: obj.CfgModifiers}, nil
}

func flattenStrings(raw json.RawMessage) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	return jsonsel.FlattenList(raw)
}

func unmarshalField(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("missing field %q", key)
	}
	return json.Unmarshal(raw, dst)
}
