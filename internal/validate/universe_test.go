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

package validate_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/buildtools/btd/internal/validate"
)

func TestValidateUniverseMissingQualifier(t *testing.T) {
	_, err := validate.ValidateUniverse([]string{"//x/..."})
	qt.Assert(t, err != nil)
}

func TestValidateUniverseExplicitTarget(t *testing.T) {
	_, err := validate.ValidateUniverse([]string{"a//:x"})
	qt.Assert(t, err != nil)
}

func TestValidateUniverseRecursiveOK(t *testing.T) {
	patterns, err := validate.ValidateUniverse([]string{"a//..."})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(patterns, 1))
	qt.Assert(t, qt.Equals(patterns[0].String(), "a//..."))
}
