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

package follower_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masp-indexer/chain/follower"
	"github.com/masp-indexer/chain/model"
)

type fakeProcessor struct {
	mu         sync.Mutex
	failTimes  int
	calls      []model.BlockHeight
	stopAfter  model.BlockHeight
	stopSignal chan struct{}
}

func (f *fakeProcessor) Process(_ context.Context, height model.BlockHeight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, height)
	if f.failTimes > 0 {
		f.failTimes--
		return errors.New("transient failure")
	}
	if f.stopAfter != 0 && height >= f.stopAfter && f.stopSignal != nil {
		close(f.stopSignal)
		f.stopSignal = nil
	}
	return nil
}

func TestLoop_RetriesOnTransientFailureThenAdvances(t *testing.T) {
	proc := &fakeProcessor{failTimes: 3}
	l := follower.New(zerolog.Nop(), proc, time.Millisecond)

	stop := make(chan struct{})
	go func() {
		time.Sleep(200 * time.Millisecond)
		close(stop)
	}()

	done := make(chan error, 1)
	go func() {
		done <- l.Run(context.Background(), 1)
	}()

	go func() {
		<-stop
		_ = l.Stop(context.Background())
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop in time")
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.GreaterOrEqual(t, len(proc.calls), 4)
	assert.Equal(t, model.BlockHeight(1), proc.calls[0])
}

func TestLoop_StopExitsWithoutFurtherProcessing(t *testing.T) {
	proc := &fakeProcessor{}
	l := follower.New(zerolog.Nop(), proc, time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- l.Run(context.Background(), 1)
	}()

	// Give the loop a moment to process height 1 before stopping.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Stop(context.Background()))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop in time")
	}

	proc.mu.Lock()
	callsAtStop := len(proc.calls)
	proc.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Equal(t, callsAtStop, len(proc.calls))
}
