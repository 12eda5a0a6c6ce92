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

// Package glob implements Buck-compatible glob matching: case-sensitive,
// with a literal path separator (wildcards never cross `/`) and a literal
// leading dot (wildcards never match a component that starts with `.`
// unless the pattern itself starts with `.`). It also implements the
// comma-separated "ignore spec" syntax used for ignore-set matching.
package glob

import (
	"regexp"
	"strings"

	"github.com/buildtools/btd/internal/btypes"
)

// Matcher matches project-relative paths against a set of Buck globs.
// Invalid patterns are silently dropped, mirroring the source system's
// policy of leaving Buck itself to report bad glob syntax.
type Matcher struct {
	patterns [][]string
}

// New compiles a Matcher from a list of raw glob patterns.
func New(globs []btypes.Glob) *Matcher {
	m := &Matcher{}
	for _, g := range globs {
		if comps, ok := compile(g.String()); ok {
			m.patterns = append(m.patterns, comps)
		}
	}
	return m
}

// Matches reports whether path matches any of the compiled patterns.
func (m *Matcher) Matches(path btypes.ProjectRelativePath) bool {
	comps := strings.Split(path.String(), "/")
	for _, p := range m.patterns {
		if matchComponents(p, comps) {
			return true
		}
	}
	return false
}

func compile(pattern string) ([]string, bool) {
	if !balancedBrackets(pattern) {
		return nil, false
	}
	return strings.Split(pattern, "/"), true
}

func balancedBrackets(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return false
			}
			depth--
		}
	}
	return depth == 0
}

// matchComponents matches a pattern split on `/` against a path split on
// `/`. A "**" component matches zero or more whole path components.
func matchComponents(pats, names []string) bool {
	if len(pats) == 0 {
		return len(names) == 0
	}
	if pats[0] == "**" {
		if matchComponents(pats[1:], names) {
			return true
		}
		if len(names) == 0 {
			return false
		}
		return matchComponents(pats, names[1:])
	}
	if len(names) == 0 {
		return false
	}
	if !matchComponent(pats[0], names[0]) {
		return false
	}
	return matchComponents(pats[1:], names[1:])
}

// matchComponent matches a single path component (no `/`) against a
// single pattern component, applying the literal-leading-dot rule: a
// wildcard at the start of the pattern never matches a name starting
// with `.`.
func matchComponent(pat, name string) bool {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(pat, ".") {
		if len(pat) > 0 && (pat[0] == '*' || pat[0] == '?' || pat[0] == '[') {
			return false
		}
	}
	return fnmatch(pat, name)
}

// fnmatch is a small shell-glob matcher supporting `*`, `?` and `[...]`
// character classes, with backtracking on `*`.
func fnmatch(pat, s string) bool {
	for {
		if pat == "" {
			return s == ""
		}
		switch pat[0] {
		case '*':
			for len(pat) > 0 && pat[0] == '*' {
				pat = pat[1:]
			}
			if pat == "" {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if fnmatch(pat, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if s == "" {
				return false
			}
			pat = pat[1:]
			s = s[1:]
		case '[':
			end := strings.IndexByte(pat, ']')
			if end < 0 {
				if s == "" || s[0] != '[' {
					return false
				}
				pat = pat[1:]
				s = s[1:]
				continue
			}
			class := pat[1:end]
			if s == "" {
				return false
			}
			neg := false
			if strings.HasPrefix(class, "!") || strings.HasPrefix(class, "^") {
				neg = true
				class = class[1:]
			}
			if matchClass(class, s[0]) == neg {
				return false
			}
			pat = pat[end+1:]
			s = s[1:]
		default:
			if s == "" || s[0] != pat[0] {
				return false
			}
			pat = pat[1:]
			s = s[1:]
		}
	}
}

func matchClass(class string, c byte) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= c && c <= class[i+2] {
				return true
			}
			i += 2
			continue
		}
		if class[i] == c {
			return true
		}
	}
	return false
}

var globChars = regexp.MustCompile(`[*?{\[]`)

// IgnoreSet matches project-relative paths against a comma-separated
// ignore spec: entries containing a glob metacharacter are compiled as
// literal-separator globs, plain entries X are promoted to match X
// itself or anything below it (X/**).
type IgnoreSet struct {
	literals []string
	patterns [][]string
}

// NewIgnoreSet parses a comma-separated ignore spec.
func NewIgnoreSet(spec string) *IgnoreSet {
	set := &IgnoreSet{}
	for _, val := range strings.Split(spec, ",") {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		val = strings.TrimSuffix(val, "/")
		if globChars.MatchString(val) {
			if comps, ok := compile(val); ok {
				set.patterns = append(set.patterns, comps)
			}
		} else {
			set.literals = append(set.literals, val)
		}
	}
	return set
}

// IsMatch reports whether path is covered by the ignore spec.
func (s *IgnoreSet) IsMatch(path string) bool {
	for _, lit := range s.literals {
		if path == lit || strings.HasPrefix(path, lit+"/") {
			return true
		}
	}
	if len(s.patterns) == 0 {
		return false
	}
	comps := strings.Split(path, "/")
	for _, p := range s.patterns {
		if matchComponents(p, comps) {
			return true
		}
	}
	return false
}
