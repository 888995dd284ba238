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
	"context"
	"fmt"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/workflow"
)

func init() {
	workflow.Register("retry", func() workflow.Step { return &RetryStep{} })
}

// RetryStep wraps another step definition, nested under its "step" key,
// and reruns it on failure up to Attempts times. The nested step is built
// through workflow.New rather than through workflow.Parse, since it isn't
// part of a containing workflow's step list.
type RetryStep struct {
	Attempts  int
	InnerKind string
	Inner     workflow.Step
}

var _ workflow.Step = (*RetryStep)(nil)

// Init implements workflow.Step.
func (s *RetryStep) Init(params *afm.AFM) error {
	const op = errors.Op("steps.RetryStep.Init")

	s.Attempts = getInt(params, "attempts", 3)
	if s.Attempts < 1 {
		return errors.E(op, errors.Validation, fmt.Errorf("\"attempts\" must be at least 1, got %d", s.Attempts))
	}

	inner, err := afm.GetAs[*afm.AFM](params, "step")
	if err != nil {
		return errors.E(op, errors.MissingParam, fmt.Errorf("retry step requires a nested \"step\" mapping"))
	}
	kind, err := afm.GetAs[string](inner, "kind")
	if err != nil {
		return errors.E(op, errors.Validation, fmt.Errorf("retry step's nested \"step\" is missing \"kind\""))
	}
	s.InnerKind = kind

	step, ok := workflow.New(kind)
	if !ok {
		return errors.E(op, errors.Validation, fmt.Errorf("retry step: unregistered nested step kind %q", kind))
	}
	if err := step.Init(inner); err != nil {
		return errors.E(op, errors.Validation, fmt.Errorf("retry step's nested step (%s): %w", kind, err))
	}
	s.Inner = step
	return nil
}

// Run implements workflow.Step. It reruns the nested step until it
// succeeds or Attempts is exhausted, returning the last error seen.
func (s *RetryStep) Run(ctx context.Context) error {
	const op = errors.Op("steps.RetryStep.Run")

	var lastErr error
	for attempt := 1; attempt <= s.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.E(op, errors.UserInterrupt, err)
		}
		lastErr = s.Inner.Run(ctx)
		if lastErr == nil {
			return nil
		}
	}
	return errors.E(op, fmt.Errorf("nested step %q failed after %d attempt(s): %w", s.InnerKind, s.Attempts, lastErr))
}
