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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/buckrun"
	"github.com/buildtools/btd/internal/cells"
	"github.com/buildtools/btd/internal/glean"
	"github.com/buildtools/btd/internal/graphsize"
	"github.com/buildtools/btd/internal/impact"
	"github.com/buildtools/btd/internal/knobs"
	"github.com/buildtools/btd/internal/output"
	"github.com/buildtools/btd/internal/propagate"
	"github.com/buildtools/btd/internal/rerun"
	"github.com/buildtools/btd/internal/targetgraph"
	"github.com/buildtools/btd/internal/tracing"
	"github.com/buildtools/btd/internal/validate"
)

func run(cmd *cobra.Command, o *options) error {
	applyLogLevel(o)

	if err := requireFlags(o); err != nil {
		return err
	}

	universe, err := validate.ValidateUniverse(o.universe)
	if err != nil {
		return err
	}

	var knobsDoc *knobs.Document
	if o.knobsPath != "" {
		knobsDoc, err = knobs.Load(o.knobsPath)
		if err != nil {
			return fmt.Errorf("loading --knobs: %w", err)
		}
	}

	span := tracing.Start("load")
	cellsJSON, err := os.ReadFile(o.cellsPath)
	if err != nil {
		return fmt.Errorf("reading --cells: %w", err)
	}
	var cellConfigJSON []byte
	if o.cellConfigPath != "" {
		cellConfigJSON, err = os.ReadFile(o.cellConfigPath)
		if err != nil {
			return fmt.Errorf("reading --cell-config: %w", err)
		}
	}
	cellInfo, err := cells.Parse(cellsJSON, cellConfigJSON)
	if err != nil {
		return fmt.Errorf("parsing cells: %w", err)
	}

	base, err := targetgraph.LoadFile(o.basePath)
	if err != nil {
		return fmt.Errorf("loading --base: %w", err)
	}
	diff, err := targetgraph.LoadFile(o.diffPath)
	if err != nil {
		return fmt.Errorf("loading --diff: %w", err)
	}

	changesFile, err := os.Open(o.changesPath)
	if err != nil {
		return fmt.Errorf("opening --changes: %w", err)
	}
	defer changesFile.Close()
	changes, err := rerun.Parse(changesFile, cellInfo)
	if err != nil {
		return fmt.Errorf("parsing --changes: %w", err)
	}
	span.End()

	if packages, ok := rerun.Plan(cellInfo, base, changes); !ok {
		tracing.Infof("a buckconfig or buck deployment change invalidates the whole graph; treating every package as dirty")
	} else {
		tracing.Infof("rerun plan touches %d package(s)", len(packages))
		buck := buckrun.New(o.buck2, o.isolationDir)
		for pkgStr, status := range packages {
			if status != rerun.Unknown {
				continue
			}
			exists, err := buck.DoesPackageExist(cellInfo, btypes.NewPackage(pkgStr))
			if err != nil {
				tracing.Warnf("probing package %q for existence: %v", pkgStr, err)
				continue
			}
			tracing.Debugf("package %q still exists: %v", pkgStr, exists)
		}
	}

	var validationErrors []*validate.ValidationError
	validationErrors = append(validationErrors, validate.CheckErrors(base, diff, changes)...)

	span = tracing.Start("impact")
	var outputs []output.Output
	immediate := impact.ImmediateTargetChanges(base, diff, changes, o.trackPrelude)
	validationErrors = append(validationErrors, validate.CheckDangling(base, diff, immediate.All(), universe)...)

	sudo := propagate.UsesSudoRecursively(diff)
	usesSudo := func(t *btypes.BuckTarget) bool { return sudo[t.LabelKey()] }

	if o.glean {
		layers := glean.Changes(base, diff, changes, o.depth)
		for depth, layer := range layers {
			for _, t := range layer {
				reason := impact.TraceData{RootCause: impact.RootCause{Label: t.Label(), Kind: impact.CauseInputs}}
				outputs = append(outputs, output.FromTarget(t, uint64(depth), usesSudo(t), reason))
			}
		}
	} else {
		for _, t := range immediate.NonRecursive {
			reason := impact.ImmediateCause(t, impact.CausePackageValues)
			outputs = append(outputs, output.FromTarget(t, 0, usesSudo(t), reason))
		}
		for _, t := range immediate.Recursive {
			reason := impact.ImmediateCause(t, impact.CauseHash)
			outputs = append(outputs, output.FromTarget(t, 0, usesSudo(t), reason))
		}

		layers := impact.RecursiveTargetChanges(diff, immediate, o.depth, func(btypes.RuleType) bool { return true })
		for i, layer := range layers {
			// Layer 0 is the immediate set, already emitted above.
			if i == 0 {
				continue
			}
			depth := uint64(i)
			for _, t := range layer {
				reason := impact.TraceData{RootCause: impact.RootCause{Label: t.Label(), Kind: impact.CauseHash}}
				outputs = append(outputs, output.FromTarget(t, depth, usesSudo(t), reason))
			}
		}
	}
	span.End()

	if len(outputs) > 0 && !knobsDoc.Bool("skip_graph_sizes") {
		gs := graphsize.New(base, diff)
		all := make([]*btypes.BuckTarget, 0, len(outputs))
		for _, rec := range outputs {
			if t, ok := diff.ByLabel(rec.Target); ok {
				all = append(all, t)
			}
		}
		sizes := gs.BatchSizes(all)
		tracing.Debugf("computed graph sizes for %d target(s)", len(sizes))
	}

	if len(validationErrors) > 0 {
		if o.writeErrorsTo != "" {
			if err := writeValidationErrors(o.writeErrorsTo, validationErrors); err != nil {
				return err
			}
		} else {
			for _, e := range validationErrors {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			return fmt.Errorf("btd: %d validation error(s)", len(validationErrors))
		}
	}

	format := output.Text
	switch o.format {
	case "json":
		format = output.JSON
	case "json-lines":
		format = output.JSONLines
	}
	return output.WriteAll(cmd.OutOrStdout(), format, outputs)
}

func writeValidationErrors(path string, errs []*validate.ValidationError) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening --write-errors-to: %w", err)
	}
	defer f.Close()
	for _, e := range errs {
		if _, err := fmt.Fprintln(f, e.Error()); err != nil {
			return err
		}
	}
	return nil
}
