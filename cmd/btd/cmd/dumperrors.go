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

	"github.com/buildtools/btd/internal/targetgraph"
	"github.com/buildtools/btd/internal/validate"
)

// newDumpErrorsCmd reports every package-evaluation error and every
// dangling edge to a target inside the universe in a single revision,
// ignoring any notion of a diff. This is what a post-commit job runs
// against the committed graph, rather than a pending change.
func newDumpErrorsCmd() *cobra.Command {
	var graphPath string
	var universe []string

	c := &cobra.Command{
		Use:   "dump-errors",
		Short: "report every validation error in a single target graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := validate.ValidateUniverse(universe)
			if err != nil {
				return err
			}
			graph, err := targetgraph.LoadFile(graphPath)
			if err != nil {
				return fmt.Errorf("loading graph: %w", err)
			}
			errs := validate.DumpAllErrors(graph, patterns)
			for _, e := range errs {
				fmt.Fprintln(os.Stdout, e.Error())
			}
			if len(errs) > 0 {
				return fmt.Errorf("btd dump-errors: %d error(s)", len(errs))
			}
			return nil
		},
	}

	c.Flags().StringVar(&graphPath, "graph", "", "path to the target dump to check (required)")
	c.Flags().StringSliceVar(&universe, "universe", nil, "target patterns scoping which dangling edges are reported")
	return c
}
