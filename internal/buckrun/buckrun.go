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

// Package buckrun runs the buck2 CLI and collects its output: project
// root, cell layout, target dumps, and config. It never interprets the
// build graph itself, only invokes the external tool and hands back raw
// bytes for internal/targetgraph and internal/cells to parse.
package buckrun

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/buildtools/btd/internal/btypes"
	"github.com/buildtools/btd/internal/cells"
	"github.com/buildtools/btd/internal/tracing"
)

// Buck2 runs buck2 commands. Every method takes a pointer receiver
// because concurrent buck2 invocations against the same daemon are not
// safe to assume independent.
type Buck2 struct {
	// Program is the buck2 binary to invoke, normally "buck2".
	Program string
	// IsolationDir, if set, is passed as --isolation-dir on every
	// invocation so concurrent runs don't share a daemon.
	IsolationDir string

	root string
}

// New builds a Buck2 runner.
func New(program, isolationDir string) *Buck2 {
	return &Buck2{Program: program, IsolationDir: isolationDir}
}

func (b *Buck2) command(args ...string) *exec.Cmd {
	if b.IsolationDir != "" {
		args = append([]string{"--isolation-dir", b.IsolationDir}, args...)
	}
	return exec.Command(b.Program, args...)
}

// runOutput runs cmd, logs it with internal/tracing, and returns its
// stdout. A non-zero exit is an error carrying stderr.
func runOutput(cmd *exec.Cmd) ([]byte, error) {
	span := tracing.Start(strings.Join(cmd.Args, " "))
	defer span.End()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("buck2 %s: %w: %s", cmd.Args, err, stderr.String())
	}
	return out, nil
}

// Root returns the project root, running `buck2 root --kind=project`
// once and caching the result for the lifetime of b.
func (b *Buck2) Root() (string, error) {
	if b.root != "" {
		return b.root, nil
	}
	cmd := b.command("root", "--kind=project")
	out, err := runOutput(cmd)
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(string(out))
	if _, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("buck2 root: output %q does not exist: %w", root, err)
	}
	b.root = root
	return root, nil
}

// Cells runs `buck2 audit cell --json` from the project root and returns
// the raw JSON for internal/cells to parse.
func (b *Buck2) Cells() ([]byte, error) {
	root, err := b.Root()
	if err != nil {
		return nil, err
	}
	cmd := b.command("audit", "cell", "--json")
	cmd.Dir = root
	return runOutput(cmd)
}

// AuditConfig runs `buck2 audit config --json` from the project root.
func (b *Buck2) AuditConfig() ([]byte, error) {
	root, err := b.Root()
	if err != nil {
		return nil, err
	}
	cmd := b.command("audit", "config", "--json")
	cmd.Dir = root
	return runOutput(cmd)
}

// TargetsArguments returns the flags this analyzer always passes to
// `buck2 targets`: the attribute set and package-values regex it needs
// out of every target, and nothing more.
func TargetsArguments() []string {
	return []string{
		"targets",
		"--streaming",
		"--keep-going",
		"--no-cache",
		"--show-unconfigured-target-hash",
		"--json-lines",
		`--output-attribute=^buck\.|^name$|^labels$|^ci_srcs$|^ci_srcs_must_match$|^ci_deps$|^remote_execution$`,
		"--imports",
		`--package-values-regex=^citadel\.labels$|^test_config_unification\.rollout$`,
	}
}

// Targets runs `buck2 targets` over patterns, writing the JSON-lines
// dump to output. extraArgs is a shell-style string (e.g. from a flag)
// split with shlex before being appended verbatim.
func (b *Buck2) Targets(extraArgs string, patterns []btypes.TargetPattern, output string) error {
	if len(patterns) == 0 {
		panic("buckrun: Targets called with no patterns")
	}

	atFile, cleanup, err := writeAtFile(patterns)
	if err != nil {
		return err
	}
	defer cleanup()

	extra, err := shlex.Split(extraArgs)
	if err != nil {
		return fmt.Errorf("buckrun: splitting extra args %q: %w", extraArgs, err)
	}

	args := append([]string{}, TargetsArguments()...)
	args = append(args, "--output", output, atFile)
	args = append(args, extra...)

	cmd := b.command(args...)
	span := tracing.Start(strings.Join(cmd.Args, " "))
	defer span.End()
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("buck2 targets: %w", err)
	}
	return nil
}

// DoesPackageExist checks the filesystem for any of the package's build
// files. The only buck2 invocation is the Root lookup, made once per b.
func (b *Buck2) DoesPackageExist(info *cells.Info, pkg btypes.Package) (bool, error) {
	root, err := b.Root()
	if err != nil {
		return false, err
	}
	for _, buildFile := range info.BuildFiles(pkg.Cell()) {
		resolved, err := info.Resolve(pkg.JoinPath(buildFile))
		if err != nil {
			continue
		}
		if _, err := os.Stat(fmt.Sprintf("%s/%s", root, resolved.String())); err == nil {
			return true, nil
		}
	}
	return false, nil
}

func writeAtFile(patterns []btypes.TargetPattern) (arg string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "btd-targets-*")
	if err != nil {
		return "", nil, err
	}
	lines := make([]string, len(patterns))
	for i, p := range patterns {
		lines[i] = p.String()
	}
	if _, err := f.WriteString(strings.Join(lines, "\n")); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return "@" + f.Name(), func() { os.Remove(f.Name()) }, nil
}
