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

package model

import "errors"

// Sentinel errors shared across package boundaries. Each collaborator wraps
// one of these with context using fmt.Errorf and %w, so callers can still
// distinguish error kinds with errors.Is.
var (
	// ErrInvalidState means the persisted commitment tree and witness map
	// sizes are inconsistent with one another at startup.
	ErrInvalidState = errors.New("invalid database state")

	// ErrShutdown signals a cooperative, orderly stop; it is not a failure.
	// The follower loop returns it from an in-flight attempt once Stop has
	// been called, so backoff.Retry stops retrying.
	ErrShutdown = errors.New("shutdown requested")
)
