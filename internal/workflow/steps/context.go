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

// Package steps implements the built-in workflow step kinds: "command",
// "subpackages", and "retry". They are registered with internal/workflow
// via init()-time Register calls.
package steps

import (
	"context"

	"github.com/cppp-project/rubisco-sub001/internal/mirror"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
)

type contextKey int

const (
	projectKey contextKey = iota
	resolverKey
	storeKey
)

// ContextWithProject attaches the project a "subpackages" step should
// fetch; the cmd layer sets this before running a hook.
func ContextWithProject(ctx context.Context, pc *project.ProjectConfig) context.Context {
	return context.WithValue(ctx, projectKey, pc)
}

// ProjectFromContext retrieves the project attached by ContextWithProject.
func ProjectFromContext(ctx context.Context) (*project.ProjectConfig, bool) {
	pc, ok := ctx.Value(projectKey).(*project.ProjectConfig)
	return pc, ok
}

// ContextWithResolver attaches the mirror resolver a "subpackages" step
// uses.
func ContextWithResolver(ctx context.Context, r *mirror.Resolver) context.Context {
	return context.WithValue(ctx, resolverKey, r)
}

// ResolverFromContext retrieves the resolver attached by
// ContextWithResolver.
func ResolverFromContext(ctx context.Context) (*mirror.Resolver, bool) {
	r, ok := ctx.Value(resolverKey).(*mirror.Resolver)
	return r, ok
}

// ContextWithStore attaches the variable store a "subpackages" step
// passes through to nested project loads.
func ContextWithStore(ctx context.Context, s *variable.Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// StoreFromContext retrieves the store attached by ContextWithStore.
func StoreFromContext(ctx context.Context) (*variable.Store, bool) {
	s, ok := ctx.Value(storeKey).(*variable.Store)
	return s, ok
}
