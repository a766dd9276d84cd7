// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package schedule runs a periodic job with overlap protection.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.astrophena.name/chirp/internal/syncx"
)

// ErrAlreadyRunning is returned when a run is requested while the previous
// one hasn't finished yet.
var ErrAlreadyRunning = errors.New("already running")

// Runner invokes a job at a fixed interval. A run that is requested while the
// previous one is still in flight is dropped, not queued. Job failures and
// panics are logged and don't stop the schedule.
type Runner struct {
	job      func(context.Context) error
	interval time.Duration
	slog     *slog.Logger

	running atomic.Bool
	trigger chan struct{}
	next    *syncx.Protected[*time.Time]
}

// New returns a runner that invokes job every interval.
func New(job func(context.Context) error, interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		job:      job,
		interval: interval,
		slog:     logger,
		trigger:  make(chan struct{}, 1),
		next:     syncx.Protect(new(time.Time)),
	}
}

// NextRun returns the time of the next scheduled run.
func (r *Runner) NextRun() time.Time {
	var next time.Time
	r.next.RAccess(func(t *time.Time) {
		next = *t
	})
	return next
}

// TriggerNow requests an immediate run. It returns ErrAlreadyRunning if a run
// is already in flight; the scheduled runs are unaffected either way.
func (r *Runner) TriggerNow() error {
	if r.running.Load() {
		return ErrAlreadyRunning
	}
	select {
	case r.trigger <- struct{}{}:
	default:
	}
	return nil
}

// Run executes the job immediately and then on every interval tick until ctx
// is canceled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx)
	for {
		r.next.Access(func(t *time.Time) {
			*t = time.Now().Add(r.interval)
		})
		select {
		case <-ticker.C:
			r.runOnce(ctx)
		case <-r.trigger:
			r.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.slog.Info("skipping run, previous one still in flight")
		return
	}
	defer r.running.Store(false)

	err := func() (err error) {
		defer func() {
			if v := recover(); v != nil {
				err = fmt.Errorf("panic: %v\n%s", v, debug.Stack())
			}
		}()
		return r.job(ctx)
	}()
	if err != nil && ctx.Err() == nil {
		r.slog.Error("run failed", slog.Any("error", err))
	}
}
