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

// Package follower walks chain heights from the last persisted one to the
// tip, retrying each height under a jittered fixed-interval backoff until
// it succeeds or shutdown is requested.
package follower

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/masp-indexer/chain/model"
)

// Processor is the subset of processor.Processor the follower loop drives.
type Processor interface {
	Process(ctx context.Context, height model.BlockHeight) error
}

// Loop advances from the last synced height to the chain tip, one height at
// a time, retrying indefinitely on error until either the attempt succeeds
// or shutdown is requested.
type Loop struct {
	log       zerolog.Logger
	processor Processor
	interval  time.Duration

	wg   sync.WaitGroup
	stop chan struct{}
	done chan struct{}
}

// New creates a follower loop that retries each height with the given base
// interval (jittered ±20%).
func New(log zerolog.Logger, processor Processor, interval time.Duration) *Loop {
	return &Loop{
		log:       log,
		processor: processor,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Stop requests an orderly shutdown and blocks until Run has returned or
// ctx is done, whichever comes first.
func (l *Loop) Stop(ctx context.Context) error {
	close(l.stop)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return nil
	}
}

// Run walks heights starting at start, advancing one at a time, until
// shutdown is requested. It never returns an error for the normal
// tip-waiting condition; it only returns once Stop has been called.
func (l *Loop) Run(ctx context.Context, start model.BlockHeight) error {
	l.wg.Add(1)
	defer l.wg.Done()
	defer close(l.done)

	height := start
	for {
		select {
		case <-l.stop:
			return nil
		default:
		}

		err := l.attempt(ctx, height)
		if err != nil {
			if errors.Is(err, model.ErrShutdown) {
				return nil
			}
			return err
		}

		l.log.Info().Uint64("height", uint64(height)).Msg("advanced to next height")
		height = height.Next()
	}
}

// attempt drives processor.Process for height under a fixed-interval
// backoff with jitter, retrying unboundedly until it succeeds or shutdown
// is requested.
func (l *Loop) attempt(ctx context.Context, height model.BlockHeight) error {
	policy := jittered(l.interval)

	operation := func() error {
		select {
		case <-l.stop:
			return backoff.Permanent(model.ErrShutdown)
		default:
		}
		return l.processor.Process(ctx, height)
	}

	notify := func(err error, wait time.Duration) {
		l.log.Warn().
			Err(err).
			Uint64("height", uint64(height)).
			Dur("wait", wait).
			Msg("block processing attempt failed, retrying")
	}

	return backoff.RetryNotify(operation, policy, notify)
}

// jittered wraps a fixed-interval backoff so that each wait is ±20% of
// interval, matching the original's FixedInterval.map(jitter) retry
// policy. A constant backoff never returns Stop, so retries are unbounded:
// the indexer waits indefinitely at the chain tip.
func jittered(interval time.Duration) backoff.BackOff {
	constant := backoff.NewConstantBackOff(interval)
	return &jitterBackOff{inner: constant}
}

type jitterBackOff struct {
	inner backoff.BackOff
}

func (j *jitterBackOff) Reset() {
	j.inner.Reset()
}

func (j *jitterBackOff) NextBackOff() time.Duration {
	base := j.inner.NextBackOff()
	if base == backoff.Stop {
		return backoff.Stop
	}
	delta := time.Duration(float64(base) * 0.2)
	offset := time.Duration(rand.Int63n(int64(2*delta+1))) - delta
	return base + offset
}
