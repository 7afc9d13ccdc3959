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

package storage

import "errors"

// ErrNotFound is the internal signal that a row's key is absent from Badger,
// translated from badger.ErrKeyNotFound inside each getter below. The
// getters themselves surface it as a plain `false`/zero-value result rather
// than an error, since an empty database is a normal startup condition, not
// a failure.
var ErrNotFound = errors.New("not found")
