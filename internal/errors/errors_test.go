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

package errors_test

import (
	"fmt"
	"testing"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestKindOfFindsNestedKind(t *testing.T) {
	inner := errors.E(errors.Op("fetch.runGit"), errors.Git, fmt.Errorf("exit status 128"))
	outer := errors.E(errors.Op("cmdfetch.runE"), inner)
	assert.Equal(t, errors.Git, errors.KindOf(outer))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, errors.Other, errors.KindOf(fmt.Errorf("plain")))
}

func TestECollapsesDuplicateContext(t *testing.T) {
	path := types.UniquePath("/p")
	inner := errors.E(errors.Op("a"), errors.OS, path, fmt.Errorf("boom"))
	outer := errors.E(errors.Op("b"), errors.OS, path, inner)
	// The duplicated Kind and Path appear once in the rendered message.
	msg := outer.Error()
	assert.Equal(t, 1, countOccurrences(msg, "filesystem error"))
	assert.Equal(t, 1, countOccurrences(msg, "/p"))
}

func TestErrorRendersHint(t *testing.T) {
	err := errors.E(errors.Op("x"), errors.Validation,
		errors.Hint("add a version field"), fmt.Errorf("missing version"))
	assert.Contains(t, err.Error(), "hint: add a version field")
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
