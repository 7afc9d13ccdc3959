// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

// Package processor implements the per-height block-processing algorithm:
// confirm finality, fetch shielded transactions, append their output
// commitments to the tree, update every live witness, and commit all of it
// atomically.
package processor

import "errors"

// ErrNotFinalized is returned when the requested height has not yet been
// committed by the consensus node; the follower loop treats it as the
// normal tip-waiting condition and retries.
var ErrNotFinalized = errors.New("block not yet finalized")
