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

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns a clock that advances by step on every call
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func TestRotateFile(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "Oblivion.esm")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))

	start := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)
	r := NewRotator().WithClock(steppingClock(start, time.Second))

	snap, rotated, err := r.Rotate(ctx, target, root, DefaultRetention)
	require.NoError(t, err, "rotating should succeed")
	require.True(t, rotated, "a usable root should rotate")

	assert.Equal(t, "03-05-2024 14-07-09", snap.Name, "snapshot should be named by timestamp")
	assert.NoFileExists(t, target, "the target should be moved away")
	content, err := os.ReadFile(filepath.Join(root, snap.Name, "Oblivion.esm"))
	require.NoError(t, err, "the snapshot should hold the file under its own name")
	assert.Equal(t, "old", string(content))
}

func TestRotateDirectory(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "Oblivion")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "NPC_"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "NPC_", "0001.yaml"), []byte("guard"), 0644))

	r := NewRotator().WithClock(steppingClock(time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local), time.Second))
	snap, rotated, err := r.Rotate(ctx, target, root, DefaultRetention)
	require.NoError(t, err)
	require.True(t, rotated)

	assert.NoDirExists(t, target, "the target should be moved away")
	content, err := os.ReadFile(filepath.Join(snap.Path, "NPC_", "0001.yaml"))
	require.NoError(t, err, "the directory contents should become the snapshot")
	assert.Equal(t, "guard", string(content))
}

func TestCaptureKeepsTarget(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "Mod.esp")
	require.NoError(t, os.WriteFile(target, []byte("prior"), 0644))

	snap, rotated, err := NewRotator().Capture(ctx, target, root, DefaultRetention)
	require.NoError(t, err)
	require.True(t, rotated)

	assert.FileExists(t, target, "capture should leave the target in place")
	content, err := os.ReadFile(filepath.Join(snap.Path, "Mod.esp"))
	require.NoError(t, err)
	assert.Equal(t, "prior", string(content))
}

func TestRotateUnusableRoot(t *testing.T) {
	ctx := testContext()
	target := filepath.Join(t.TempDir(), "Mod.esp")
	require.NoError(t, os.WriteFile(target, []byte("prior"), 0644))

	tests := []struct {
		name string
		root string
	}{
		{name: "unset_root", root: ""},
		{name: "blank_root", root: "   "},
		{name: "missing_root", root: filepath.Join(t.TempDir(), "missing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rotated, err := NewRotator().Rotate(ctx, target, tt.root, DefaultRetention)
			require.NoError(t, err, "an unusable root is not an error")
			assert.False(t, rotated, "nothing should be rotated")
			assert.FileExists(t, target, "the target should be untouched")
		})
	}
}

func TestRotateRetention(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()
	dir := t.TempDir()

	const retention = 3
	const rotations = retention + 4

	r := NewRotator().WithClock(steppingClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local), time.Minute))
	var names []string
	for i := 0; i < rotations; i++ {
		target := filepath.Join(dir, "Mod.esp")
		require.NoError(t, os.WriteFile(target, []byte(fmt.Sprintf("version %d", i)), 0644))
		snap, rotated, err := r.Rotate(ctx, target, root, retention)
		require.NoError(t, err)
		require.True(t, rotated)
		names = append(names, snap.Name)
	}

	snaps, err := List(root)
	require.NoError(t, err)
	require.Len(t, snaps, retention, "exactly retention snapshots should remain")
	for i, snap := range snaps {
		assert.Equal(t, names[rotations-1-i], snap.Name, "remaining snapshots should be the most recent, newest first")
	}

	content, err := os.ReadFile(filepath.Join(snaps[0].Path, "Mod.esp"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("version %d", rotations-1), string(content), "newest snapshot should hold the last replaced content")
}

func TestSameSecondSnapshots(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()
	dir := t.TempDir()
	frozen := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local)
	r := NewRotator().WithClock(func() time.Time { return frozen })

	var names []string
	for i := 0; i < 12; i++ {
		target := filepath.Join(dir, "Mod.esp")
		require.NoError(t, os.WriteFile(target, []byte(fmt.Sprintf("%d", i)), 0644))
		snap, _, err := r.Rotate(ctx, target, root, 20)
		require.NoError(t, err)
		names = append(names, snap.Name)
	}

	assert.Equal(t, "06-01-2024 12-00-00", names[0])
	assert.Equal(t, "06-01-2024 12-00-00 (1)", names[1])
	assert.Equal(t, "06-01-2024 12-00-00 (11)", names[11])

	snaps, err := List(root)
	require.NoError(t, err)
	require.Len(t, snaps, 12)
	assert.Equal(t, names[11], snaps[0].Name, "the latest same-second snapshot should sort first")
	assert.Equal(t, names[0], snaps[11].Name, "the first same-second snapshot should sort last")
}

func TestListIgnoresForeignEntries(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"01-02-2024 10-00-00", "12-31-2023 23-59-59", "notes", "01-02-2024 10-00-00 (x)"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "02-02-2024 10-00-00"), nil, 0644))

	snaps, err := List(root)
	require.NoError(t, err)
	require.Len(t, snaps, 2, "only snapshot directories should be listed")
	assert.Equal(t, "01-02-2024 10-00-00", snaps[0].Name, "a january snapshot is newer than a december one")
	assert.Equal(t, "12-31-2023 23-59-59", snaps[1].Name)

	missing, err := List(filepath.Join(root, "missing"))
	require.NoError(t, err, "a missing root lists nothing")
	assert.Empty(t, missing)
}

func TestPrune(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()
	for day := 1; day <= 5; day++ {
		require.NoError(t, os.MkdirAll(filepath.Join(root, fmt.Sprintf("01-%02d-2024 10-00-00", day)), 0755))
	}

	removed, err := Prune(ctx, root, 2)
	require.NoError(t, err)
	assert.Len(t, removed, 3, "three old snapshots should be removed")

	snaps, err := List(root)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "01-05-2024 10-00-00", snaps[0].Name)
	assert.Equal(t, "01-04-2024 10-00-00", snaps[1].Name)

	removed, err = Prune(ctx, root, 0)
	require.NoError(t, err)
	assert.Empty(t, removed, "a retention below one falls back to the default")
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{name: "03-05-2024 14-07-09", ok: true},
		{name: "03-05-2024 14-07-09 (3)", ok: true},
		{name: "03-05-2024 14-07-09 (0)", ok: false},
		{name: "03-05-2024 14-07-09-extra", ok: false},
		{name: "2024-03-05 14-07-09", ok: false},
		{name: "backup", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := parseName(tt.name)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
