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
	"github.com/cppp-project/rubisco-sub001/internal/mirror"
	"github.com/cppp-project/rubisco-sub001/internal/scheduler"
	"github.com/cppp-project/rubisco-sub001/internal/workflow"
)

func init() {
	workflow.Register("subpackages", func() workflow.Step { return &SubpackagesStep{} })
}

// SubpackagesStep invokes the subpackage scheduler (internal/scheduler)
// as an ordinary workflow step, so `fetch` can be expressed as a hook
// like any other workflow. The project it fetches comes from the context
// (ContextWithProject), set by the CLI before running the hook.
type SubpackagesStep struct {
	Protocol  mirror.Protocol `yaml:"protocol"`
	Shallow   bool            `yaml:"shallow"`
	UseMirror bool            `yaml:"use-mirror"`
	Strict    bool            `yaml:"strict"`
}

var _ workflow.Step = (*SubpackagesStep)(nil)

// Init implements workflow.Step.
func (s *SubpackagesStep) Init(params *afm.AFM) error {
	s.Protocol = mirror.ProtocolHTTP
	s.Shallow = true
	s.UseMirror = true
	if err := workflow.DecodeParams(params, s); err != nil {
		return err
	}
	if s.Protocol != mirror.ProtocolHTTP && s.Protocol != mirror.ProtocolSSH {
		return errors.E(errors.Op("steps.SubpackagesStep.Init"), errors.Validation,
			fmt.Errorf("\"protocol\" must be http or ssh, got %q", s.Protocol))
	}
	return nil
}

// Run implements workflow.Step.
func (s *SubpackagesStep) Run(ctx context.Context) error {
	const op = errors.Op("steps.SubpackagesStep.Run")

	pc, ok := ProjectFromContext(ctx)
	if !ok {
		return errors.E(op, errors.Internal, fmt.Errorf("subpackages step requires a project in context"))
	}
	store, _ := StoreFromContext(ctx)
	resolver, _ := ResolverFromContext(ctx)

	sch := &scheduler.Scheduler{
		Config: scheduler.Config{
			Protocol:  s.Protocol,
			Shallow:   s.Shallow,
			UseMirror: s.UseMirror,
			Strict:    s.Strict,
		},
		Resolver: resolver,
		Store:    store,
	}

	agg, err := sch.Run(ctx, pc)
	if err != nil {
		return errors.E(op, err)
	}
	if agg.Failed > 0 {
		return errors.E(op, errors.Subprocess, fmt.Errorf("%d subpackage(s) failed to fetch", agg.Failed))
	}
	return nil
}
