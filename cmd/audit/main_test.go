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

package main

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestRunRequiresGraphFlag(t *testing.T) {
	*graphFlag = ""
	_, err := run()
	qt.Assert(t, qt.ErrorMatches(err, "-graph is required"))
}

func TestRunMissingGraphFile(t *testing.T) {
	*graphFlag = "/nonexistent/does-not-exist.json"
	defer func() { *graphFlag = "" }()
	_, err := run()
	qt.Assert(t, qt.IsNotNil(err))
}
