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

package validate

import (
	"fmt"
	"strings"

	"github.com/buildtools/btd/internal/btypes"
)

// ValidateUniverse parses a driver's universe argument, one pattern per
// string, rejecting shapes that don't describe a scope the validator can
// usefully reason about: a cell-less pattern (one starting with "//"), or a
// pattern naming one specific target rather than a package or subtree.
func ValidateUniverse(patterns []string) ([]btypes.TargetPattern, error) {
	out := make([]btypes.TargetPattern, len(patterns))
	for i, s := range patterns {
		if strings.HasPrefix(s, "//") {
			return nil, fmt.Errorf("validate: universe pattern %q is missing a cell qualifier", s)
		}
		p := btypes.NewTargetPattern(s)
		if p.IsSpecificTarget() {
			return nil, fmt.Errorf("validate: universe pattern %q names a specific target, not a package or subtree", s)
		}
		out[i] = p
	}
	return out, nil
}
