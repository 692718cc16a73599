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

package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gitsync/pkg/config"
	"github.com/walteh/gitsync/pkg/conversion"
	"gitlab.com/tozd/go/errors"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "Mod.esp")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0644))
	missing := filepath.Join(dir, "Gone.esp")

	tests := []struct {
		name    string
		path    string
		lastErr string
		want    Pair
	}{
		{name: "error_wins", path: missing, lastErr: "boom", want: Pair{Type: Error, Message: "boom"}},
		{name: "error_on_existing_path", path: existing, lastErr: "boom", want: Pair{Type: Error, Message: "boom"}},
		{name: "missing_path", path: missing, want: Pair{Type: Warning, Message: "Path did not exist: " + missing}},
		{name: "healthy", path: existing, want: Pair{Type: None}},
		{name: "directory", path: dir, want: Pair{Type: None}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.path, tt.lastErr))
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		outcome conversion.Outcome
		want    string
	}{
		{outcome: conversion.Success, want: ""},
		{outcome: conversion.IdentifierInvalid, want: "Could not construct a ModKey from given binary path: notes.txt.  Expected .esp/.esm file type."},
		{outcome: conversion.SourceMissing, want: "Source path did not exist: /repo/mod."},
		{outcome: conversion.CorruptionDetected, want: "Correctness logic detected corruption in the sync.  Cancelled."},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.outcome, "notes.txt", "/repo/mod"))
		})
	}
}

func TestTracker(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "Mod.esp")
	folder := filepath.Join(dir, "mod")
	require.NoError(t, os.WriteFile(binary, []byte("x"), 0644))

	entry := config.Entry{Grouping: "main", Mapping: config.Mapping{Nickname: "Mod.esp", BinaryPath: binary, FolderPath: folder}}
	tracker := NewTracker()

	st := tracker.Check(entry)
	assert.Equal(t, None, st.Binary.Type)
	assert.Equal(t, Warning, st.Folder.Type)

	// a failed export marks the folder side
	tracker.Record(entry, conversion.ToXML, conversion.Result{Outcome: conversion.CorruptionDetected}, nil)
	st = tracker.Check(entry)
	assert.Equal(t, None, st.Binary.Type)
	assert.Equal(t, Error, st.Folder.Type)
	assert.Contains(t, st.Folder.Message, "corruption")

	// a failed import marks the binary side and reports the folder as source
	tracker.Record(entry, conversion.ToBinary, conversion.Result{Outcome: conversion.SourceMissing}, nil)
	assert.Equal(t, "Source path did not exist: "+folder+".", tracker.LastError(entry.ID(), BinarySide))

	tracker.Record(entry, conversion.ToBinary, conversion.Result{}, errors.New("disk on fire"))
	assert.Equal(t, "disk on fire", tracker.LastError(entry.ID(), BinarySide))

	// success clears only its own side
	tracker.Record(entry, conversion.ToBinary, conversion.Result{Outcome: conversion.Success}, nil)
	assert.Empty(t, tracker.LastError(entry.ID(), BinarySide))
	assert.NotEmpty(t, tracker.LastError(entry.ID(), FolderSide))
}

func TestFormatMapping(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	out := FormatMapping(MappingStatus{
		Entry:  config.Entry{Grouping: "main", Mapping: config.Mapping{Nickname: "Mod.esp"}},
		Binary: Pair{Type: None},
		Folder: Pair{Type: Warning, Message: "Path did not exist: /repo/mod"},
	})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "main/Mod.esp")
	assert.Contains(t, lines[0], "✓ binary")
	assert.Contains(t, lines[0], "ok")
	assert.Contains(t, lines[1], "! folder")
	assert.Contains(t, lines[1], "Path did not exist: /repo/mod")
}
