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

package scheduler

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Tree renders a's results as a flat debug tree rooted at rootName. Run
// doesn't track parent/child edges explicitly (identity-based dedup
// makes the tree shape ambiguous for diamonds), so every result hangs
// directly off the root, labeled with its outcome.
func (a *Aggregate) Tree(rootName string) string {
	root := treeprint.New()
	root.SetValue(rootName)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.Results {
		label := fmt.Sprintf("%s [%s] -> %s", r.Name, r.Outcome, r.DestPath)
		if r.Err != nil {
			label += fmt.Sprintf(" (%v)", r.Err)
		}
		root.AddNode(label)
	}
	return root.String()
}
