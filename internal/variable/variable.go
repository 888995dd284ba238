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

// Package variable implements the process-scoped variable store and the
// "{name}" / "${{name}}" template expander that backs the configuration
// layer. A Store is never a package-level global: every caller that needs
// one constructs it explicitly and threads it through, so push/pop
// discipline is visible at the call site instead of hidden in a shared
// mutable map.
package variable

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/google/shlex"
)

// Store is a mapping from variable name to a non-empty stack of string
// values. The zero value is not usable; use New or NewStore.
type Store struct {
	mu     sync.RWMutex
	stacks map[string][]string
}

// New returns an empty Store with no built-ins seeded. Most callers want
// NewStore instead.
func New() *Store {
	return &Store{stacks: make(map[string][]string)}
}

// NewStore returns a Store seeded with the built-in names the core
// provides at startup: home, cwd, nproc, os, arch, version, invocation.
// UCI-owned styling names (red, bold, reset, ...) are pushed empty so
// `format` never reports them undefined; a UCI overrides them via Push.
func NewStore(version string, args []string) *Store {
	s := New()

	home, _ := os.UserHomeDir()
	s.Push("home", home)

	cwd, _ := os.Getwd()
	s.Push("cwd", cwd)

	s.Push("nproc", fmt.Sprintf("%d", runtime.NumCPU()))
	s.Push("os", runtime.GOOS)
	s.Push("arch", runtime.GOARCH)
	s.Push("version", version)
	s.Push("invocation", joinArgv(args))

	for _, name := range []string{"red", "green", "yellow", "blue", "bold", "reset"} {
		s.Push(name, "")
	}

	return s
}

func joinArgv(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\$") {
			quoted[i] = shlexQuote(a)
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}

func shlexQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Split tokenizes a shell-like command line the way the workflow engine's
// command step needs to, using the same shlex semantics joinArgv quotes
// with.
func Split(line string) ([]string, error) {
	return shlex.Split(line)
}

// Push makes value the new top of name's stack.
func (s *Store) Push(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stacks[name] = append(s.stacks[name], value)
}

// Pop removes and returns the top of name's stack. It errors if name has
// no values pushed.
func (s *Store) Pop(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stack := s.stacks[name]
	if len(stack) == 0 {
		return "", errors.E(errors.Op("variable.Pop"), errors.MissingParam,
			fmt.Errorf("variable %q has no pushed values", name))
	}
	top := stack[len(stack)-1]
	s.stacks[name] = stack[:len(stack)-1]
	return top, nil
}

// Top returns the most recently pushed value for name without removing it.
func (s *Store) Top(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stack := s.stacks[name]
	if len(stack) == 0 {
		return "", errors.E(errors.Op("variable.Top"), errors.MissingParam,
			fmt.Errorf("variable %q is not defined", name))
	}
	return stack[len(stack)-1], nil
}

// Scope pushes value onto name's stack and returns a function that pops
// it back off. Callers use it as `defer store.Scope("x", "y")()`.
func (s *Store) Scope(name, value string) func() {
	s.Push(name, value)
	return func() {
		_, _ = s.Pop(name)
	}
}

var (
	braceToken = regexp.MustCompile(`\$\{\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}\}`)
	plainToken = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.]*)\}`)
)

// Format scans s for "${{name}}" and "{name}" tokens and replaces each
// with the top of that name in the store, or with overrides[name] when
// present (overrides win). A token naming an undefined variable is left
// verbatim, so later re-expansion (e.g. after a later Push) can still
// resolve it. Format never errors: an unresolvable token is not a failure.
func (s *Store) Format(in string, overrides map[string]string) string {
	replace := func(name string) (string, bool) {
		if overrides != nil {
			if v, ok := overrides[name]; ok {
				return v, true
			}
		}
		v, err := s.Top(name)
		if err != nil {
			return "", false
		}
		return v, true
	}

	out := braceToken.ReplaceAllStringFunc(in, func(tok string) string {
		name := braceToken.FindStringSubmatch(tok)[1]
		if v, ok := replace(name); ok {
			return v
		}
		return tok
	})
	out = plainToken.ReplaceAllStringFunc(out, func(tok string) string {
		name := plainToken.FindStringSubmatch(tok)[1]
		if v, ok := replace(name); ok {
			return v
		}
		return tok
	})
	return out
}
