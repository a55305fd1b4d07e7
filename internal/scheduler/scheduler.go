// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scheduler drives the engine's fixed-period tick loop
// (spec.md §5) on top of the teacher's gocron scheduling pattern: one
// recurring DurationJob per input period, in WithSingletonMode so a
// slow tick can never overlap the next one — the single hazard
// spec.md §5's "engine tick never blocks, single-threaded scheduler"
// guards against.
package scheduler

import (
	"time"

	"github.com/edeline-labs/assurance-agent/internal/alog"
	"github.com/edeline-labs/assurance-agent/internal/engine"
	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/go-co-op/gocron/v2"
)

// Scheduler owns the gocron scheduler driving one Engine's tick.
type Scheduler struct {
	gc   gocron.Scheduler
	eng  *engine.Engine
	hook func(health.Result)
}

// New creates a Scheduler for eng; period is not used here, the tick
// period is the one passed to Start. hook, if
// non-nil, is called synchronously with each tick's result — wired to
// promexport/gnmiserver/export's "publish latest snapshot" consumers.
func New(eng *engine.Engine, period time.Duration, hook func(health.Result)) (*Scheduler, error) {
	gc, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{gc: gc, eng: eng, hook: hook}, nil
}

// Start registers the tick job and begins running it. Overlapping
// ticks are impossible by construction: WithSingletonMode skips a
// scheduled run rather than queuing or running it concurrently, the
// same discipline a slow engine tick needs per spec.md §5.
func (s *Scheduler) Start(period time.Duration) error {
	_, err := s.gc.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(func() {
			res := s.eng.Tick()
			if s.hook != nil {
				s.hook(res)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		alog.Errorf("scheduler: failed to register tick job: %v", err)
		return err
	}
	s.gc.Start()
	return nil
}

// Shutdown stops the scheduler, per spec.md §5's "set stop flag, wait
// one input period, tear down collectors and exporter". Callers are
// expected to wait roughly one period themselves before tearing down
// the collectors the engine's graph updater reads from, since a tick
// already in flight when Shutdown is called is allowed to finish.
func (s *Scheduler) Shutdown() error {
	return s.gc.Shutdown()
}
