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

// Package targetgraph holds the in-memory build graph for one revision:
// targets, the `.bzl` import graph, and per-package parse errors, with
// indices built lazily on first lookup.
package targetgraph

import (
	"sync"

	"github.com/buildtools/btd/internal/btypes"
)

// EntryKind distinguishes the three shapes a line of a target dump can
// take.
type EntryKind int

const (
	KindTarget EntryKind = iota
	KindImport
	KindError
)

// Entry is one node of the build graph: exactly one of Target, Import,
// or Error is set, selected by Kind.
type Entry struct {
	Kind   EntryKind
	Target *btypes.BuckTarget
	Import *btypes.BuckImport
	Error  *btypes.BuckError
}

// Package returns the owning package of the entry, or the zero Package
// if the entry has none (an Import without an owning package).
func (e Entry) Package() btypes.Package {
	switch e.Kind {
	case KindTarget:
		return e.Target.Package
	case KindImport:
		if e.Import.HasPackage {
			return e.Import.Package
		}
		return btypes.Package{}
	case KindError:
		return e.Error.Package
	default:
		return btypes.Package{}
	}
}

// Targets is an immutable, append-only build graph: a flat list of
// entries plus two indices built on first use and cached thereafter.
type Targets struct {
	entries []Entry

	once    sync.Once
	byLabel map[string]*btypes.BuckTarget
	byKey   map[btypes.LabelKey]*btypes.BuckTarget
}

// New wraps a slice of entries as a Targets container. Ownership of
// entries passes to the container; callers must not mutate it after.
func New(entries []Entry) *Targets {
	return &Targets{entries: entries}
}

// Entries returns every entry in load order.
func (t *Targets) Entries() []Entry { return t.entries }

// AllTargets returns every BuckTarget entry, in load order.
func (t *Targets) AllTargets() []*btypes.BuckTarget {
	out := make([]*btypes.BuckTarget, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Kind == KindTarget {
			out = append(out, e.Target)
		}
	}
	return out
}

// AllImports returns every BuckImport entry, in load order.
func (t *Targets) AllImports() []*btypes.BuckImport {
	out := make([]*btypes.BuckImport, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Kind == KindImport {
			out = append(out, e.Import)
		}
	}
	return out
}

// AllErrors returns every BuckError entry, in load order.
func (t *Targets) AllErrors() []*btypes.BuckError {
	out := make([]*btypes.BuckError, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Kind == KindError {
			out = append(out, e.Error)
		}
	}
	return out
}

func (t *Targets) ensureIndex() {
	t.once.Do(func() {
		t.byLabel = make(map[string]*btypes.BuckTarget, len(t.entries))
		t.byKey = make(map[btypes.LabelKey]*btypes.BuckTarget, len(t.entries))
		for _, e := range t.entries {
			if e.Kind != KindTarget {
				continue
			}
			t.byLabel[e.Target.Label().String()] = e.Target
			t.byKey[e.Target.LabelKey()] = e.Target
		}
	})
}

// ByLabel looks up a target by its fully-qualified label.
func (t *Targets) ByLabel(label btypes.TargetLabel) (*btypes.BuckTarget, bool) {
	t.ensureIndex()
	target, ok := t.byLabel[label.String()]
	return target, ok
}

// ByKey looks up a target by its (package, name) identity.
func (t *Targets) ByKey(key btypes.LabelKey) (*btypes.BuckTarget, bool) {
	t.ensureIndex()
	target, ok := t.byKey[key]
	return target, ok
}

// Update produces a fresh container containing every entry of t whose
// owning package is neither in deletedPackages nor re-stated by an entry
// of newEntries, followed by newEntries itself.
func (t *Targets) Update(newEntries []Entry, deletedPackages map[string]struct{}) *Targets {
	shadowed := make(map[string]struct{}, len(newEntries))
	for _, e := range newEntries {
		if pkg := e.Package(); !pkg.IsZero() {
			shadowed[pkg.String()] = struct{}{}
		}
	}

	out := make([]Entry, 0, len(t.entries)+len(newEntries))
	for _, e := range t.entries {
		pkg := e.Package().String()
		if _, deleted := deletedPackages[pkg]; deleted {
			continue
		}
		if _, replaced := shadowed[pkg]; replaced {
			continue
		}
		out = append(out, e)
	}
	out = append(out, newEntries...)
	return New(out)
}
