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

// Package workflow implements the declarative ordered-step engine: a
// Workflow parses to a list of typed Steps from a registered step kind,
// and runs them sequentially, emitting pre-/post-step events to the UCI.
// The "current workflow" is an explicit stack (Engine.stack) rather than
// the Go call stack, so nested Engine.Run calls on the same Engine are
// tracked innermost-last.
package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/stack"
)

// Step is one runnable, typed workflow step. Implementations are built by
// a StepFactory and validated via Init before Run is ever called.
type Step interface {
	// Init validates and extracts params, the step's raw AFM slice.
	// A validation error here aborts the whole workflow's parse.
	Init(params *afm.AFM) error
	// Run executes the step. A returned error aborts the workflow;
	// subsequent steps do not run.
	Run(ctx context.Context) error
}

// StepFactory constructs a zero-valued Step for a registered kind.
type StepFactory func() Step

var (
	registryMu sync.RWMutex
	registry   = make(map[string]StepFactory)
)

// Register adds factory under kind to the global step registry. Built-in
// step packages call this from an init() func.
func Register(kind string, factory StepFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// lookup returns the factory registered for kind, if any.
func lookup(kind string) (StepFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}

// New constructs a fresh Step for kind via its registered factory, for
// callers (like a retry step wrapping another step definition) that need
// to build a nested step programmatically instead of through Parse.
func New(kind string) (Step, bool) {
	factory, ok := lookup(kind)
	if !ok {
		return nil, false
	}
	return factory(), true
}

// StepInstance pairs a parsed Step with its declared id/name/kind, for
// display and event reporting.
type StepInstance struct {
	ID   string
	Name string
	Kind string
	Step Step
}

// Workflow is an ordered, named list of steps.
type Workflow struct {
	ID    string
	Name  string
	Steps []StepInstance
}

// Parse builds a Workflow from raw, the decoded "hooks.<name>" AFM (or
// any mapping shaped the same way): a "steps" key holding a list of step
// maps, each with "kind", "id", "name", and step-specific parameters.
// Unknown kinds and failing Init calls abort parsing immediately.
func Parse(id string, raw *afm.AFM) (*Workflow, error) {
	const op = errors.Op("workflow.Parse")

	name := afm.GetAsOr(raw, "name", id)
	rawSteps, err := afm.GetAs[[]any](raw, "steps")
	if err != nil {
		return &Workflow{ID: id, Name: name}, nil // A workflow with no steps is valid but does nothing.
	}

	wf := &Workflow{ID: id, Name: name}
	seen := make(map[string]bool, len(rawSteps))

	for i, item := range rawSteps {
		entry, ok := item.(*afm.AFM)
		if !ok {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("steps[%d] must be a mapping", i))
		}

		kind, err := afm.GetAs[string](entry, "kind")
		if err != nil {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("steps[%d] missing \"kind\"", i))
		}
		stepID := afm.GetAsOr(entry, "id", fmt.Sprintf("%s-%d", kind, i))
		if seen[stepID] {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("duplicate step id %q in workflow %q", stepID, id))
		}
		seen[stepID] = true
		stepName := afm.GetAsOr(entry, "name", stepID)

		factory, ok := lookup(kind)
		if !ok {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("unregistered step kind %q", kind))
		}

		step := factory()
		if err := step.Init(entry); err != nil {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("step %q (%s): %w", stepID, kind, err))
		}

		wf.Steps = append(wf.Steps, StepInstance{ID: stepID, Name: stepName, Kind: kind, Step: step})
	}

	return wf, nil
}

// Engine runs Workflows, tracking the currently-executing chain as an
// explicit stack: each Run pushes its workflow id and pops it on return,
// so a nested Run on the same Engine doesn't rely on Go call-stack depth
// for that state. The built-in steps do not call Run themselves; a
// "retry" step runs its nested step directly.
type Engine struct {
	mu    sync.Mutex
	stack *stack.Stack[string]
}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine {
	return &Engine{stack: stack.New[string]()}
}

// Current returns the id of the innermost currently-running workflow, or
// "" if none is running.
func (e *Engine) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stack.Len() == 0 {
		return ""
	}
	return e.stack.Top()
}

// Run executes wf's steps sequentially. A step that returns an error
// aborts the workflow: subsequent steps do not run, and Run returns that
// error wrapped with the failing step's id.
func (e *Engine) Run(ctx context.Context, wf *Workflow) error {
	const op = errors.Op("workflow.Engine.Run")
	pr := printer.FromContextOrDie(ctx)

	e.mu.Lock()
	e.stack.Push(wf.ID)
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.stack.Pop()
		e.mu.Unlock()
	}()

	for _, si := range wf.Steps {
		pr.Event(printer.Event{Kind: printer.EventStepStart, Name: si.ID})
		err := si.Step.Run(ctx)
		pr.Event(printer.Event{Kind: printer.EventStepDone, Name: si.ID, Err: err})
		if err != nil {
			return errors.E(op, fmt.Errorf("step %q (%s): %w", si.ID, si.Kind, err))
		}
	}
	return nil
}
