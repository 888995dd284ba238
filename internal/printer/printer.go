// Copyright 2021 Google LLC
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

// Package printer defines the boundary between the core and the UCI (User
// Control Interface): colored output, progress bars, and prompts are the
// UCI's job, not the core's. The core only ever talks to a Printer.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cppp-project/rubisco-sub001/internal/types"
)

const (
	// FnIndentation is the number of spaces at the beginning of each line of
	// nested progress output.
	FnIndentation = 2
)

// DisableOutputTruncate controls whether long output is truncated.
var DisableOutputTruncate bool

// EventKind identifies the kind of lifecycle event being reported to the
// UCI. The core emits these at well-defined points; it never assumes the
// UCI rendered them any particular way.
type EventKind string

const (
	// EventMirrorProbeStart fires when a mirror reachability probe begins.
	EventMirrorProbeStart EventKind = "mirror-probe-start"
	// EventMirrorProbeDone fires when a mirror reachability probe completes.
	EventMirrorProbeDone EventKind = "mirror-probe-done"
	// EventStepStart fires before a workflow step runs.
	EventStepStart EventKind = "step-start"
	// EventStepDone fires after a workflow step runs.
	EventStepDone EventKind = "step-done"
	// EventOverwriteRequired fires when a backend needs a yes/no answer
	// before overwriting an existing path. The UCI answers via Answer.
	EventOverwriteRequired EventKind = "overwrite-required"
)

// Event is a single lifecycle notification delivered to the UCI.
type Event struct {
	Kind EventKind
	// Name identifies the subject: a mirror name, a step id, a path.
	Name string
	// Elapsed is set for EventMirrorProbeDone (probe latency).
	Elapsed int64
	// Err is set when the event represents a failure (e.g. probe timeout).
	Err error
	// Answer receives the UCI's response to EventOverwriteRequired. The
	// core blocks on it only for that event kind; for all others it may
	// be nil and must not be read.
	Answer chan bool
}

// Printer defines the capabilities the core needs to display progress and
// solicit answers. The CLI's terminal renderer, a test fake, or a future
// non-interactive frontend can all implement it.
type Printer interface {
	Printf(format string, args ...interface{})
	OptPrintf(opt *Options, format string, args ...interface{})
	Event(e Event)
}

// Options are optional parameters for a single Printf call.
type Options struct {
	// Indentation is the number of spaces added at the start of each line.
	Indentation int
	// OutputToStderr routes this call's output to stderr instead of stdout.
	OutputToStderr bool
	// PkgPath is the unique path of the project the message concerns.
	PkgPath types.UniquePath
	// PkgDisplayPath is the display path of the project the message concerns.
	PkgDisplayPath types.DisplayPath
}

// NewOpt returns an empty *Options ready for chaining.
func NewOpt() *Options {
	return &Options{}
}

// Pkg sets the project unique path.
func (opt *Options) Pkg(p types.UniquePath) *Options {
	opt.PkgPath = p
	return opt
}

// PkgDisplay sets the project display path.
func (opt *Options) PkgDisplay(p types.DisplayPath) *Options {
	opt.PkgDisplayPath = p
	return opt
}

// Indent sets the output indentation.
func (opt *Options) Indent(i int) *Options {
	opt.Indentation = i
	return opt
}

// Stderr routes this call's output to stderr.
func (opt *Options) Stderr() *Options {
	opt.OutputToStderr = true
	return opt
}

// New returns the default Printer, writing to outStream/errStream (which
// default to os.Stdout/os.Stderr if nil). It ignores Event notifications
// other than EventOverwriteRequired, which it answers "no" to — an
// interactive UCI is expected to supply its own Printer for that prompt.
func New(outStream, errStream io.Writer) Printer {
	if outStream == nil {
		outStream = os.Stdout
	}
	if errStream == nil {
		errStream = os.Stderr
	}
	return &printer{
		outStream: outStream,
		errStream: errStream,
	}
}

type printer struct {
	outStream io.Writer
	errStream io.Writer
}

type contextKey int

const printerKey contextKey = 0

// Printf is a wrapper over fmt.Printf that writes to the printer's stdout.
func (pr *printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(pr.outStream, format, args...)
}

// OptPrintf is a wrapper over fmt.Printf that honors opt.
func (pr *printer) OptPrintf(opt *Options, format string, args ...interface{}) {
	if opt == nil {
		fmt.Fprintf(pr.outStream, format, args...)
		return
	}
	o := pr.outStream
	if opt.OutputToStderr {
		o = pr.errStream
	}
	if !opt.PkgDisplayPath.Empty() {
		format = fmt.Sprintf("Project %q: ", string(opt.PkgDisplayPath)) + format
	} else if !opt.PkgPath.Empty() {
		relPath, err := opt.PkgPath.RelativePath()
		if err != nil {
			relPath = string(opt.PkgPath)
		}
		format = fmt.Sprintf("Project %q: ", relPath) + format
	}
	if opt.Indentation != 0 {
		indentPrintf(o, opt.Indentation, format, args...)
		return
	}
	fmt.Fprintf(o, format, args...)
}

// Event answers EventOverwriteRequired with "no" (abort rather than clobber)
// and otherwise drops the notification. A terminal UCI overrides this to
// render progress and prompt the user.
func (pr *printer) Event(e Event) {
	if e.Kind == EventOverwriteRequired && e.Answer != nil {
		e.Answer <- false
	}
}

func indentPrintf(w io.Writer, indentation int, format string, a ...interface{}) {
	s := fmt.Sprintf(format, a...)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		newline := "\n"
		if i == len(lines)-1 {
			newline = ""
		}
		if l == "" {
			fmt.Fprint(w, newline)
		} else {
			fmt.Fprint(w, strings.Repeat(" ", indentation)+l+newline)
		}
	}
}

// FromContextOrDie returns the Printer stashed in ctx, panicking if none was
// set. Every entry point into the core must call WithContext first.
func FromContextOrDie(ctx context.Context) Printer {
	pr, ok := ctx.Value(printerKey).(Printer)
	if ok {
		return pr
	}
	panic("printer missing in context")
}

// WithContext returns a child of ctx carrying pr as the active Printer.
func WithContext(ctx context.Context, pr Printer) context.Context {
	return context.WithValue(ctx, printerKey, pr)
}
