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

// Package fake provides test doubles for internal/printer.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/cppp-project/rubisco-sub001/internal/printer"
)

// NilPrinter implements printer.Printer and discards everything. Any
// EventOverwriteRequired is answered "yes" so tests don't deadlock.
type NilPrinter struct{}

func (np *NilPrinter) OptPrintf(*printer.Options, string, ...interface{}) {}

func (np *NilPrinter) Printf(string, ...interface{}) {}

func (np *NilPrinter) Event(e printer.Event) {
	if e.Kind == printer.EventOverwriteRequired && e.Answer != nil {
		e.Answer <- true
	}
}

// CtxWithNilPrinter returns a new context with the NilPrinter installed.
func CtxWithNilPrinter() context.Context {
	return printer.WithContext(context.Background(), &NilPrinter{})
}

// RecordingPrinter captures every Printf/Event call for assertions.
type RecordingPrinter struct {
	mu     sync.Mutex
	Lines  []string
	Events []printer.Event
}

func (rp *RecordingPrinter) Printf(format string, args ...interface{}) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.Lines = append(rp.Lines, fmt.Sprintf(format, args...))
}

func (rp *RecordingPrinter) OptPrintf(opt *printer.Options, format string, args ...interface{}) {
	rp.Printf(format, args...)
}

func (rp *RecordingPrinter) Event(e printer.Event) {
	rp.mu.Lock()
	rp.Events = append(rp.Events, e)
	rp.mu.Unlock()
	if e.Kind == printer.EventOverwriteRequired && e.Answer != nil {
		e.Answer <- true
	}
}

// CtxWithRecordingPrinter returns a context carrying rp as the active
// printer, alongside rp itself for post-hoc assertions.
func CtxWithRecordingPrinter() (context.Context, *RecordingPrinter) {
	rp := &RecordingPrinter{}
	return printer.WithContext(context.Background(), rp), rp
}
