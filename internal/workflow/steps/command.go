// Copyright 2024 The rubisco-sub001 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
	"github.com/cppp-project/rubisco-sub001/internal/workflow"
)

func init() {
	workflow.Register("command", func() workflow.Step { return &CommandStep{} })
}

// CommandStep runs a templated command line, split into argv with
// google/shlex rather than handed to a shell; the AFM has already
// template-expanded the line by the time Init sees it.
type CommandStep struct {
	Line    string `yaml:"command"`
	Capture bool   `yaml:"capture"`
	Strict  bool   `yaml:"strict"`
	Dir     string `yaml:"cwd"`

	// Captured holds combined stdout+stderr after Run, when Capture is
	// true; the inherit-stdio shape leaves it empty.
	Captured string `yaml:"-"`
}

var _ workflow.Step = (*CommandStep)(nil)

// Init implements workflow.Step.
func (s *CommandStep) Init(params *afm.AFM) error {
	const op = errors.Op("steps.CommandStep.Init")
	s.Strict = true
	if err := workflow.DecodeParams(params, s); err != nil {
		return err
	}
	if s.Line == "" {
		return errors.E(op, errors.MissingParam, fmt.Errorf("\"command\" is required"))
	}
	return nil
}

// Run implements workflow.Step.
func (s *CommandStep) Run(ctx context.Context) error {
	const op = errors.Op("steps.CommandStep.Run")

	argv, err := variable.Split(s.Line)
	if err != nil {
		return errors.E(op, errors.Validation, fmt.Errorf("splitting command %q: %w", s.Line, err))
	}
	if len(argv) == 0 {
		return errors.E(op, errors.Validation, fmt.Errorf("empty command"))
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if s.Dir != "" {
		cmd.Dir = s.Dir
	}

	if s.Capture {
		var buf bytes.Buffer
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		err = cmd.Run()
		s.Captured = buf.String()
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
		err = cmd.Run()
	}

	if err == nil {
		return nil
	}
	if !s.Strict {
		return nil
	}
	if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
		return errors.E(op, errors.CommandNotFound, execErr)
	}
	return errors.E(op, errors.Subprocess, err)
}
