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

// Package knobs loads the small set of boolean/integer feature flags
// that let a deployment change btd's behavior without a code change, in
// place of an internal-only feature-flag service.
package knobs

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the decoded contents of a knobs file: named boolean
// toggles and named integer values. An absent boolean reads as false; an
// absent integer reads as the default its caller passes to Int.
type Document struct {
	Booleans map[string]bool  `yaml:"booleans"`
	Integers map[string]int64 `yaml:"integers"`
}

// Load reads and parses a knobs YAML document from path. A missing file
// is not an error: it is treated as an empty document, so every boolean
// knob reads as false and every integer knob as its caller-supplied
// default.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Bool reports the value of a boolean knob, or false if it isn't set.
func (d *Document) Bool(name string) bool {
	if d == nil {
		return false
	}
	return d.Booleans[name]
}

// Int reports the value of an integer knob, or defaultValue if it isn't
// set.
func (d *Document) Int(name string, defaultValue int64) int64 {
	if d == nil {
		return defaultValue
	}
	if v, ok := d.Integers[name]; ok {
		return v
	}
	return defaultValue
}
