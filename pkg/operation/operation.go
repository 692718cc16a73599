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
	"time"

	"github.com/walteh/gitsync/pkg/config"
	"github.com/walteh/gitsync/pkg/conversion"
	"github.com/walteh/gitsync/pkg/location"
	"github.com/walteh/gitsync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔄 Converter is the part of a conversion engine the runner drives
type Converter interface {
	Convert(ctx context.Context, dir conversion.Direction, binary location.File, folder location.Directory, opts ...conversion.CallOption) (conversion.Result, error)
}

// 📋 Job converts one mapping in one direction
type Job struct {
	Entry     config.Entry
	Direction conversion.Direction
}

// 🎯 Destination is the path the job writes to
func (j Job) Destination() string {
	if j.Direction == conversion.ToBinary {
		return j.Entry.Mapping.BinaryPath
	}
	return j.Entry.Mapping.FolderPath
}

// Source is the path the job reads from
func (j Job) Source() string {
	if j.Direction == conversion.ToBinary {
		return j.Entry.Mapping.FolderPath
	}
	return j.Entry.Mapping.BinaryPath
}

// JobsFor builds one job per entry, all in the same direction
func JobsFor(entries []config.Entry, dir conversion.Direction) []Job {
	jobs := make([]Job, 0, len(entries))
	for _, e := range entries {
		jobs = append(jobs, Job{Entry: e, Direction: dir})
	}
	return jobs
}

// 📬 Report is what happened to a single job
type Report struct {
	Job      Job
	Result   conversion.Result
	Err      error
	Skipped  bool // the context was done before the job started
	Duration time.Duration
}

// ✅ OK reports whether the job converted successfully
func (r Report) OK() bool {
	return r.Err == nil && !r.Skipped && r.Result.Outcome == conversion.Success
}

// 💬 Message is the user-facing reason the job did not succeed, "" if it did
func (r Report) Message() string {
	switch {
	case r.Skipped:
		return "Skipped: " + r.Err.Error()
	case r.Err != nil:
		return r.Err.Error()
	}
	binaryName := ""
	if f, err := r.Job.Entry.Mapping.Binary(); err == nil {
		binaryName = f.Name()
	}
	return status.Message(r.Result.Outcome, binaryName, r.Job.Source())
}

// 📊 Summary counts reports by how they ended
type Summary struct {
	Written   int
	Unchanged int
	Failed    int
	Skipped   int
}

// Summarize tallies reports
func Summarize(reports []Report) Summary {
	var s Summary
	for _, r := range reports {
		switch {
		case r.Skipped:
			s.Skipped++
		case !r.OK():
			s.Failed++
		case r.Result.Written:
			s.Written++
		default:
			s.Unchanged++
		}
	}
	return s
}

// 🔧 Options configures a Runner
type Options struct {
	// Converter performs each conversion
	Converter Converter
	// Settings supply the worker count, backup roots, retention and correctness default
	Settings *config.Settings
	// Tracker, when set, records every finished job
	Tracker *status.Tracker
	// Notify, when set, is called as each job finishes. It may be called
	// from several goroutines at once.
	Notify func(Report)
}

// 🏭 New creates a runner
func New(opts Options) (*Runner, error) {
	if opts.Converter == nil {
		return nil, errors.Errorf("converter is required")
	}
	if opts.Settings == nil {
		opts.Settings = config.Default()
	}
	return &Runner{
		opts:  opts,
		locks: newKeyedMutex(),
	}, nil
}
