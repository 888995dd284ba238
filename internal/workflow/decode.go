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

package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
)

// DecodeParams resolves a step's raw AFM parameter slice into a typed
// struct: the AFM is flattened to a plain tree (template-expanding every
// string leaf on the way out) and round-tripped through yaml.v3 into
// out's yaml-tagged fields. Unknown keys are tolerated — a step map also
// carries the engine-owned "kind"/"id"/"name" keys its params struct has
// no business declaring.
func DecodeParams(params *afm.AFM, out any) error {
	const op = errors.Op("workflow.DecodeParams")

	raw, err := yaml.Marshal(params.ToPlain())
	if err != nil {
		return errors.E(op, errors.Internal, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return errors.E(op, errors.Validation, fmt.Errorf("decoding step parameters: %w", err))
	}
	return nil
}
