// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/gitsync/pkg/conversion"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner executes jobs concurrently
type Runner struct {
	opts  Options
	locks *keyedMutex
}

// 🏃 Run executes jobs and returns one report per job, in job order. Extra
// options apply to every conversion after the settings-derived ones.
func (r *Runner) Run(ctx context.Context, jobs []Job, opts ...conversion.CallOption) []Report {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("jobs", len(jobs)).Int("workers", r.opts.Settings.Workers).Msg("running jobs")

	reports := make([]Report, len(jobs))

	var g errgroup.Group
	g.SetLimit(max(r.opts.Settings.Workers, 1))
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			reports[i] = r.runOne(ctx, job, opts)
			if r.opts.Tracker != nil && !reports[i].Skipped {
				r.opts.Tracker.Record(job.Entry, job.Direction, reports[i].Result, reports[i].Err)
			}
			if r.opts.Notify != nil {
				r.opts.Notify(reports[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return reports
}

func (r *Runner) runOne(ctx context.Context, job Job, extra []conversion.CallOption) Report {
	report := Report{Job: job}

	if err := ctx.Err(); err != nil {
		report.Skipped = true
		report.Err = err
		return report
	}

	unlock := r.locks.lock("destination:" + filepath.Clean(job.Destination()))
	defer unlock()

	// snapshots and pruning under one backup root never overlap
	settings := r.opts.Settings
	backupRoot := settings.BackupRootFor(job.Entry)
	if backupRoot != "" {
		unlockRoot := r.locks.lock("backup:" + filepath.Clean(backupRoot))
		defer unlockRoot()
	}

	// the lock wait may have outlasted the context
	if err := ctx.Err(); err != nil {
		report.Skipped = true
		report.Err = err
		return report
	}

	logger := zerolog.Ctx(ctx).With().Str("mapping", job.Entry.ID()).Logger()
	ctx = logger.WithContext(ctx)

	binary, err := job.Entry.Mapping.Binary()
	if err != nil {
		report.Err = err
		return report
	}
	folder, err := job.Entry.Mapping.Folder()
	if err != nil {
		report.Err = err
		return report
	}

	if backupRoot != "" {
		if err := os.MkdirAll(backupRoot, 0755); err != nil {
			report.Err = errors.Errorf("creating backup root %s: %w", backupRoot, err)
			return report
		}
	}

	opts := []conversion.CallOption{
		conversion.WithBackupRoot(backupRoot),
		conversion.WithRetention(settings.Retention),
		conversion.WithCorrectnessCheck(settings.ShouldCheckCorrectness()),
	}
	opts = append(opts, extra...)

	start := time.Now()
	report.Result, report.Err = r.opts.Converter.Convert(context.WithoutCancel(ctx), job.Direction, binary, folder, opts...)
	report.Duration = time.Since(start)

	if report.Err != nil {
		logger.Error().Err(report.Err).Str("direction", job.Direction.String()).Msg("conversion failed")
	} else {
		logger.Debug().Str("direction", job.Direction.String()).Str("outcome", report.Result.Outcome.String()).Bool("written", report.Result.Written).Dur("took", report.Duration).Msg("conversion finished")
	}
	return report
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
