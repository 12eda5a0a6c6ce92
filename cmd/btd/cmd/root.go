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

// Package cmd implements the btd driver: load two revisions of a build
// graph, work out which targets a set of file changes impacts, and
// report the result.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildtools/btd/internal/errs"
	"github.com/buildtools/btd/internal/tracing"
)

// options holds every flag value for one invocation of the root command.
type options struct {
	cellsPath      string
	cellConfigPath string
	changesPath    string
	basePath       string
	diffPath       string
	universe       []string
	buck2          string
	isolationDir   string
	format         string
	depth          int
	trackPrelude   bool
	glean          bool
	knobsPath      string
	writeErrorsTo  string
	logLevel       string
}

// NewRootCmd builds the btd command tree.
func NewRootCmd() *cobra.Command {
	var o options

	root := &cobra.Command{
		Use:           "btd",
		Short:         "incremental target-impact analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &o)
		},
	}

	flags := root.Flags()
	flags.StringVar(&o.cellsPath, "cells", "", "path to the cells JSON dump (required)")
	flags.StringVar(&o.cellConfigPath, "cell-config", "", "path to the cell build-file-name config overlay")
	flags.StringVar(&o.changesPath, "changes", "", "path to the changes file (required)")
	flags.StringVar(&o.basePath, "base", "", "path to the base revision's target dump (required)")
	flags.StringVar(&o.diffPath, "diff", "", "path to the diff revision's target dump (required)")
	flags.StringSliceVar(&o.universe, "universe", nil, "target patterns scoping the analysis; may be repeated")
	flags.StringVar(&o.buck2, "buck2", "buck2", "build-tool binary to invoke for commands that need it")
	flags.StringVar(&o.isolationDir, "isolation-dir", "", "build-tool isolation directory")
	flags.StringVar(&o.format, "format", "json", "output format: json, json-lines, or text")
	flags.IntVar(&o.depth, "depth", -1, "maximum recursive-impact depth, or -1 for unlimited")
	flags.BoolVar(&o.trackPrelude, "track-prelude", true, "treat prelude .bzl changes as affecting every target that loads them")
	flags.BoolVar(&o.glean, "glean", false, "run the C++ header/source impact variant instead of the general engine")
	flags.StringVar(&o.knobsPath, "knobs", "", "path to a feature-flag YAML document")
	flags.StringVar(&o.writeErrorsTo, "write-errors-to", "", "if set, write validation errors to this path instead of failing the run")
	flags.StringVar(&o.logLevel, "log-level", "", "tracing verbosity: warn, info, or debug (overrides BTD_LOG)")

	root.AddCommand(newDumpErrorsCmd())

	return root
}

// Main runs btd and returns the process exit code.
func Main() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func applyLogLevel(o *options) {
	if o.logLevel != "" {
		tracing.SetLevel(tracing.ParseLevel(o.logLevel))
	}
}

func requireFlags(o *options) error {
	var missing errs.List
	if o.cellsPath == "" {
		missing.Addf("--cells is required")
	}
	if o.changesPath == "" {
		missing.Addf("--changes is required")
	}
	if o.basePath == "" {
		missing.Addf("--base is required")
	}
	if o.diffPath == "" {
		missing.Addf("--diff is required")
	}
	return missing.Err()
}
