// Copyright 2019 Google LLC
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

// Package errors defines the error handling used across rubisco-sub001.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cppp-project/rubisco-sub001/internal/types"
)

// Is and As re-export the standard library so callers only need to import
// this package when working with *Error chains.
var (
	Is = errors.Is
	As = errors.As
)

// Error is the error type used throughout the codebase, modeled on the
// design described in https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html
type Error struct {
	// Path is the project or subpackage path involved in the operation.
	Path types.UniquePath

	// Repo is the repository or mirror URL involved in the operation, if any.
	Repo string

	// Op is the operation being performed, e.g. "config.Load", "fetch.Run".
	Op Op

	// Kind classifies the error per the taxonomy in Kind's constants.
	Kind Kind

	// Hint is an optional actionable suggestion for the end user.
	Hint string

	// DocURL is an optional link to further documentation.
	DocURL string

	// Err is the wrapped error, if any.
	Err error
}

func (e *Error) Error() string {
	b := new(strings.Builder)

	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}
	if e.Path != "" {
		pad(b, ": ")
		b.WriteString("project ")
		b.WriteString(string(e.Path))
	}
	if e.Repo != "" {
		pad(b, ": ")
		b.WriteString("repo ")
		b.WriteString(e.Repo)
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if wrapped, ok := e.Err.(*Error); ok {
			if !wrapped.Zero() {
				pad(b, ":\n\t")
				b.WriteString(wrapped.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if e.Hint != "" {
		pad(b, "\nhint: ")
		b.WriteString(e.Hint)
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// Unwrap allows errors.Is/As to see through an *Error to its cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func pad(b *strings.Builder, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

// Zero reports whether e carries no information of its own.
func (e *Error) Zero() bool {
	return e.Op == "" && e.Path == "" && e.Repo == "" && e.Kind == Other && e.Err == nil
}

// Op describes the operation being performed.
type Op string

// Hint is an actionable suggestion attached to an error for the UCI to show.
type Hint string

// DocURL points the UCI at further documentation for an error.
type DocURL string

// Kind defines the kind of error this is.
type Kind int

const (
	Other          Kind = iota // Unclassified.
	Exist                      // Item already exists.
	Internal                   // Internal invariant violation.
	InvalidParam               // Value is not valid.
	MissingParam               // Required value is missing or empty.
	Validation                 // Config value missing or wrong type.
	NotAProject                // Directory does not contain a project file.
	NotAnExtension             // Directory does not contain an extension.
	OS                         // Filesystem permission, missing path, disk full.
	Subprocess                 // Child process exited non-zero.
	CommandNotFound            // Child process binary could not be located.
	Network                    // Unreachable host, timeout, bad HTTP status.
	UserInterrupt              // Cooperative cancellation requested by the user.
	Git                        // Errors surfaced from the git backend.
	Archive                    // Errors surfaced from the archive backend.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case Exist:
		return "item already exists"
	case Internal:
		return "internal error"
	case InvalidParam:
		return "invalid parameter value"
	case MissingParam:
		return "missing parameter value"
	case Validation:
		return "validation error"
	case NotAProject:
		return "not a project directory"
	case NotAnExtension:
		return "not an extension directory"
	case OS:
		return "filesystem error"
	case Subprocess:
		return "subprocess error"
	case CommandNotFound:
		return "command not found"
	case Network:
		return "network error"
	case UserInterrupt:
		return "interrupted"
	case Git:
		return "git error"
	case Archive:
		return "archive error"
	}
	return "unknown kind"
}

// E builds an *Error from its arguments. Recognized argument types are
// Op, Kind, Hint, DocURL, types.UniquePath, a Repo-tagged string (via the
// Repo helper below), error, and string (wrapped as fmt.Errorf(a)).
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E must have at least one argument")
	}

	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case types.UniquePath:
			e.Path = a
		case repoTag:
			e.Repo = string(a)
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case Hint:
			e.Hint = string(a)
		case DocURL:
			e.DocURL = string(a)
		case *Error:
			cp := *a
			e.Err = &cp
		case error:
			e.Err = a
		case string:
			e.Err = fmt.Errorf("%s", a)
		default:
			panic(fmt.Errorf("unknown type %T for value %v in call to errors.E", a, a))
		}
	}

	wrapped, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	if e.Path == wrapped.Path {
		wrapped.Path = ""
	}
	if e.Repo == wrapped.Repo {
		wrapped.Repo = ""
	}
	if e.Op == wrapped.Op {
		wrapped.Op = ""
	}
	if e.Kind == wrapped.Kind {
		wrapped.Kind = Other
	}
	return e
}

// repoTag distinguishes a repo/mirror URL string from a plain wrapped-error
// string when passed to E.
type repoTag string

// Repo tags a repo or mirror URL so E assigns it to Error.Path's sibling
// Repo field instead of treating it as a wrapped error message.
func Repo(url string) repoTag {
	return repoTag(url)
}

// KindOf reports the first non-Other Kind found on err's *Error chain,
// or Other if none carries one. Walking the chain matters because E
// hoists context incrementally: an outer *Error added for Op context
// alone has Kind Other while the classifying Kind sits further down.
func KindOf(err error) Kind {
	for {
		var e *Error
		if !As(err, &e) {
			return Other
		}
		if e.Kind != Other {
			return e.Kind
		}
		if e.Err == nil {
			return Other
		}
		err = e.Err
	}
}
