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

// Command audit reports every validation error present in a single
// target graph: packages that failed to parse or evaluate, and
// dependency edges that point outside the graph but inside the
// requested universe. It takes no diff and no changes file; it is what
// a post-commit job runs against the graph as committed, independent
// of any pending change.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/buildtools/btd/internal/targetgraph"
	"github.com/buildtools/btd/internal/validate"
)

var (
	graphFlag    = flag.String("graph", "", "path to the target dump to check")
	universeFlag = flag.String("universe", "", "comma-separated target patterns scoping which dangling edges are reported")
	formatFlag   = flag.String("format", "text", "output format: text or json-lines")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: audit -graph=<path> [-universe=<patterns>]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
	}
	n, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", err)
		os.Exit(1)
	}
	if n > 0 {
		os.Exit(1)
	}
}

func run() (int, error) {
	if *graphFlag == "" {
		return 0, fmt.Errorf("-graph is required")
	}

	var patterns []string
	if *universeFlag != "" {
		patterns = strings.Split(*universeFlag, ",")
	}
	universe, err := validate.ValidateUniverse(patterns)
	if err != nil {
		return 0, err
	}

	graph, err := targetgraph.LoadFile(*graphFlag)
	if err != nil {
		return 0, fmt.Errorf("loading %q: %w", *graphFlag, err)
	}

	errs := validate.DumpAllErrors(graph, universe)
	enc := json.NewEncoder(os.Stdout)
	for _, e := range errs {
		if *formatFlag == "json-lines" {
			if err := enc.Encode(errorRecord{Kind: int(e.Kind), Message: e.Error()}); err != nil {
				return 0, err
			}
		} else {
			fmt.Println(e.Error())
		}
	}
	return len(errs), nil
}

// errorRecord is the json-lines projection of a validate.ValidationError:
// the struct itself carries unexported label/package fields, so audit
// reports the already-rendered message rather than trying to marshal it
// directly.
type errorRecord struct {
	Kind    int    `json:"kind"`
	Message string `json:"message"`
}
