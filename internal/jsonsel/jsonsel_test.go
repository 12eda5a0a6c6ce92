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

package jsonsel_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/jsonsel"
)

func TestFlattenListPlainArray(t *testing.T) {
	got, err := jsonsel.FlattenList([]byte(`["a","b","c"]`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(got, []string{"a", "b", "c"}))
}

func TestFlattenListSelectorOfScalars(t *testing.T) {
	raw := []byte(`
		[
			{
				"__type": "selector",
				"entries": {
					"DEFAULT": "c",
					"ovr_config//os:linux": "a",
					"ovr_config//os:macos": "b"
				}
			},
			"d",
			"e",
			{
				"__type": "concat",
				"items": [
					{
						"__type": "selector",
						"entries": {
							"DEFAULT": "2",
							"ovr_config//os:linux": "1"
						}
					},
					"suffix"
				]
			}
		]
	`)
	got, err := jsonsel.FlattenList(raw)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(got, []string{"c", "a", "b", "d", "e", "2suffix"}))
}

func TestFlattenListTopLevelSelector(t *testing.T) {
	raw := []byte(`
		{
			"__type": "selector",
			"entries": {
				"DEFAULT": ["c","d"],
				"ovr_config//os:linux": ["a"],
				"ovr_config//os:macos": ["b"]
			}
		}
	`)
	got, err := jsonsel.FlattenList(raw)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(got, []string{"c", "d", "a", "b"}))
}

func TestFlattenListTopLevelConcat(t *testing.T) {
	raw := []byte(`
		{
			"__type": "concat",
			"items": [
				{
					"__type": "selector",
					"entries": {
						"DEFAULT": ["c"],
						"ovr_config//os:linux": ["a"]
					}
				},
				["test", "more"]
			]
		}
	`)
	got, err := jsonsel.FlattenList(raw)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(got, []string{"c", "a", "test", "more"}))
}

func TestFlattenListNestedSelector(t *testing.T) {
	raw := []byte(`
		{
			"__type": "selector",
			"entries": {
				"DEFAULT": {
					"__type": "selector",
					"entries": {
						"DEFAULT": ["inner1", "inner2"],
						"config//mode:debug": ["inner3"]
					}
				},
				"config//os:linux": ["outer1"]
			}
		}
	`)
	got, err := jsonsel.FlattenList(raw)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(got, 4))
	for _, want := range []string{"inner1", "inner2", "inner3", "outer1"} {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		qt.Assert(t, qt.IsTrue(found), qt.Commentf("missing %s", want))
	}
}

func TestFlattenListEmptyBranch(t *testing.T) {
	raw := []byte(`
		{
			"__type": "selector",
			"entries": {
				"DEFAULT": ["a"],
				"config//os:macos": []
			}
		}
	`)
	got, err := jsonsel.FlattenList(raw)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(got, []string{"a"}))
}

func TestFlattenListNull(t *testing.T) {
	got, err := jsonsel.FlattenList(nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNil(got))

	got, err = jsonsel.FlattenList([]byte(`null`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNil(got))
}
