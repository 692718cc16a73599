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

package log

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/gitsync/pkg/conversion"
	"github.com/walteh/gitsync/pkg/operation"
	"github.com/walteh/gitsync/pkg/pathops"
)

// 🎨 Display configuration
const (
	entryIndent = 4  // spaces to indent mapping entries
	nameWidth   = 35 // Base width for the mapping name
	stateWidth  = 12 // Width for the state text
	maxPatch    = 20 // patch lines shown per difference
)

// 🎯 Logger prints conversion progress for people and mirrors it to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	batch   *batch
}

type batch struct {
	direction conversion.Direction
	total     int
	done      int
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// 🏭 NewWithZerolog creates a logger that mirrors to an existing zerolog logger
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// state is the one-word summary of a report and how to draw it
func state(r operation.Report) (symbol rune, attr color.Attribute, word string) {
	switch {
	case r.Skipped:
		return '•', color.Faint, "skipped"
	case r.Err != nil:
		return '✗', color.FgRed, "failed"
	}
	switch r.Result.Outcome {
	case conversion.Success:
		if r.Result.Written {
			return '✓', color.FgGreen, "written"
		}
		return '-', color.FgHiBlack, "unchanged"
	case conversion.CorruptionDetected:
		return '⚠', color.FgYellow, "corrupted"
	case conversion.SourceMissing:
		return '?', color.FgYellow, "missing"
	case conversion.IdentifierInvalid:
		return '✗', color.FgRed, "invalid"
	default:
		return '✗', color.FgRed, "unknown"
	}
}

// 📝 formatReport formats a report for display
func (l *Logger) formatReport(r operation.Report) string {
	symbol, attr, word := state(r)

	detail := r.Job.Destination()
	switch {
	case !r.OK():
		detail = r.Message()
	case r.Result.Snapshot != "":
		detail = fmt.Sprintf("%s (backup %s)", detail, filepath.Base(r.Result.Snapshot))
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", entryIndent, ""),
		color.New(attr).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, r.Job.Entry.ID()),
		color.New(attr).Sprint(fmt.Sprintf("%-*s", stateWidth, word)),
		detail)
}

// 📝 LogReport logs the outcome of one job
func (l *Logger) LogReport(ctx context.Context, r operation.Report) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.batch != nil {
		l.batch.done++
	}

	fmt.Fprintln(l.console, l.formatReport(r))

	_, _, word := state(r)
	ev := l.zlog.Info()
	if !r.OK() {
		ev = l.zlog.Warn()
	}
	ev.Str("mapping", r.Job.Entry.ID()).
		Str("direction", r.Job.Direction.String()).
		Str("state", word).
		Str("destination", r.Job.Destination()).
		Str("snapshot", r.Result.Snapshot).
		Dur("took", r.Duration).
		AnErr("error", r.Err).
		Msg("mapping converted")
}

// 📝 LogDifferences prints what a failed round trip changed
func (l *Logger) LogDifferences(ctx context.Context, diffs []pathops.Difference) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, d := range diffs {
		fmt.Fprintf(l.console, "%*s%s %s\n", entryIndent, "", color.New(color.FgYellow).Sprint(d.Kind.String()), d.Path)
		if d.Patch == "" {
			continue
		}
		lines := strings.Split(strings.TrimRight(d.Patch, "\n"), "\n")
		for i, line := range lines {
			if i == maxPatch {
				fmt.Fprintf(l.console, "%*s%s\n", entryIndent*2, "", color.New(color.Faint).Sprintf("... %d more lines", len(lines)-maxPatch))
				break
			}
			fmt.Fprintf(l.console, "%*s%s\n", entryIndent*2, "", line)
		}
	}
	l.zlog.Warn().Int("differences", len(diffs)).Msg("round trip differences")
}

// 📝 StartBatch prints the header for a run over many mappings
func (l *Logger) StartBatch(ctx context.Context, dir conversion.Direction, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.batch = &batch{direction: dir, total: total}

	fmt.Fprintf(l.console, "[syncing %s]\n", color.New(color.FgCyan).Sprint(directionLabel(dir)))
	fmt.Fprintf(l.console, "%s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprintf("%d mappings", total),
		color.New(color.Faint).Sprint("•"))

	l.zlog.Info().Str("direction", dir.String()).Int("mappings", total).Msg("starting batch")
}

// 📝 EndBatch prints the summary of the current batch
func (l *Logger) EndBatch(ctx context.Context, s operation.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.batch == nil {
		return
	}

	fmt.Fprintf(l.console, "%s written, %s unchanged, %s failed, %s skipped\n",
		color.New(color.FgGreen).Sprint(s.Written),
		color.New(color.FgHiBlack).Sprint(s.Unchanged),
		color.New(color.FgRed).Sprint(s.Failed),
		color.New(color.Faint).Sprint(s.Skipped))

	l.zlog.Info().
		Str("direction", l.batch.direction.String()).
		Int("reported", l.batch.done).
		Int("written", s.Written).
		Int("unchanged", s.Unchanged).
		Int("failed", s.Failed).
		Int("skipped", s.Skipped).
		Msg("batch complete")

	l.batch = nil
}

func directionLabel(dir conversion.Direction) string {
	if dir == conversion.ToBinary {
		return "to binary"
	}
	return "to git"
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("gitsync")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
