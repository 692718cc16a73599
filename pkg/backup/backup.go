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

// Package backup keeps a bounded history of destinations replaced by the
// conversion engine.
//
// Snapshots live directly below a backup root, one directory per snapshot,
// named with the time they were taken:
//
//	<root>/<MM-dd-yyyy HH-mm-ss>/<original-name-or-contents>
//
// A directory listing of the root is the only index.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/gitsync/pkg/pathops"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultRetention is the number of snapshots kept when none is configured
	DefaultRetention = 10

	// SnapshotLayout is the time layout of snapshot directory names (MM-dd-yyyy HH-mm-ss)
	SnapshotLayout = "01-02-2006 15-04-05"
)

// 📸 Snapshot is one backup directory below a backup root
type Snapshot struct {
	Name      string    // directory name
	Path      string    // absolute path of the snapshot directory
	CreatedAt time.Time // parsed from the name, local time

	seq int
}

// 🔄 Rotator creates snapshots and prunes old ones
type Rotator struct {
	now func() time.Time
}

// 🏭 NewRotator creates a rotator using the wall clock
func NewRotator() *Rotator {
	return &Rotator{now: time.Now}
}

// 🕐 WithClock returns a copy of the rotator that reads time from now
func (r *Rotator) WithClock(now func() time.Time) *Rotator {
	return &Rotator{now: now}
}

// 🔍 Usable reports whether root is configured and exists as a directory
func Usable(root string) bool {
	return strings.TrimSpace(root) != "" && pathops.IsDir(root)
}

// 📦 Rotate moves target (a file or a directory) into a new snapshot below
// root and prunes everything but the retention most recent snapshots.
//
// When root is unset or missing nothing happens and rotated is false; the
// caller then deletes target itself. A directory target becomes the snapshot
// directory; a file target is placed inside it under its own name.
func (r *Rotator) Rotate(ctx context.Context, target, root string, retention int) (snap Snapshot, rotated bool, err error) {
	return r.snapshot(ctx, target, root, retention, pathops.Move)
}

// 📋 Capture is Rotate for callers that must keep target in place: the
// target is copied into the snapshot instead of moved.
func (r *Rotator) Capture(ctx context.Context, target, root string, retention int) (snap Snapshot, rotated bool, err error) {
	return r.snapshot(ctx, target, root, retention, func(ctx context.Context, src, dst string) error {
		if pathops.IsDir(src) {
			return pathops.CopyTree(ctx, src, dst)
		}
		return pathops.CopyFile(src, dst)
	})
}

func (r *Rotator) snapshot(ctx context.Context, target, root string, retention int, transfer func(ctx context.Context, src, dst string) error) (Snapshot, bool, error) {
	logger := zerolog.Ctx(ctx)

	if !Usable(root) {
		logger.Debug().Str("root", root).Msg("backup root not usable, skipping snapshot")
		return Snapshot{}, false, nil
	}
	if !pathops.Exists(target) {
		return Snapshot{}, false, errors.Errorf("backup target does not exist: %s", target)
	}

	isDir := pathops.IsDir(target)
	snap, err := r.claim(root, !isDir)
	if err != nil {
		return Snapshot{}, false, err
	}

	dst := snap.Path
	if !isDir {
		dst = filepath.Join(snap.Path, filepath.Base(target))
	}
	if err := transfer(ctx, target, dst); err != nil {
		if !isDir {
			_ = os.Remove(snap.Path)
		}
		return Snapshot{}, false, errors.Errorf("moving %s into snapshot %s: %w", target, snap.Name, err)
	}

	logger.Debug().Str("target", target).Str("snapshot", snap.Path).Msg("created backup snapshot")

	if removed, err := Prune(ctx, root, retention); err != nil {
		logger.Warn().Err(err).Str("root", root).Int("removed", len(removed)).Msg("pruning old snapshots")
	}

	return snap, true, nil
}

// claim picks an unused snapshot name for the current time. With create set
// the directory is created, otherwise only the name is reserved by checking
// that nothing is there yet.
func (r *Rotator) claim(root string, create bool) (Snapshot, error) {
	now := r.now()
	base := now.Format(SnapshotLayout)
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s (%d)", base, i)
		}
		path := filepath.Join(root, name)
		if !create {
			if pathops.Exists(path) {
				continue
			}
			return Snapshot{Name: name, Path: path, CreatedAt: now, seq: i}, nil
		}
		err := os.Mkdir(path, 0755)
		if err == nil {
			return Snapshot{Name: name, Path: path, CreatedAt: now, seq: i}, nil
		}
		if !os.IsExist(err) {
			return Snapshot{}, errors.Errorf("creating snapshot directory %s: %w", path, err)
		}
	}
	return Snapshot{}, errors.Errorf("no free snapshot name for %s below %s", base, root)
}

// 📋 List returns the snapshots below root, newest first. Entries whose
// names are not snapshot names are ignored.
func List(root string) ([]Snapshot, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("reading backup root %s: %w", root, err)
	}

	snaps := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		created, seq, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		snaps = append(snaps, Snapshot{
			Name:      entry.Name(),
			Path:      filepath.Join(root, entry.Name()),
			CreatedAt: created,
			seq:       seq,
		})
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
		}
		return snaps[i].seq > snaps[j].seq
	})
	return snaps, nil
}

// parseName reads the creation time and same-second sequence from a
// snapshot directory name
func parseName(name string) (time.Time, int, bool) {
	if len(name) < len(SnapshotLayout) {
		return time.Time{}, 0, false
	}
	created, err := time.ParseInLocation(SnapshotLayout, name[:len(SnapshotLayout)], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	rest := name[len(SnapshotLayout):]
	if rest == "" {
		return created, 0, true
	}
	if !strings.HasPrefix(rest, " (") || !strings.HasSuffix(rest, ")") {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(rest[2 : len(rest)-1])
	if err != nil || seq < 1 {
		return time.Time{}, 0, false
	}
	return created, seq, true
}

// 🧹 Prune deletes all but the retention most recent snapshots below root.
// A retention below one falls back to DefaultRetention. Every snapshot is
// attempted even when an earlier one fails to delete.
func Prune(ctx context.Context, root string, retention int) ([]Snapshot, error) {
	if retention < 1 {
		retention = DefaultRetention
	}

	snaps, err := List(root)
	if err != nil {
		return nil, err
	}
	if len(snaps) <= retention {
		return nil, nil
	}

	var removed []Snapshot
	var errs []error
	for _, snap := range snaps[retention:] {
		if err := pathops.Delete(snap.Path); err != nil {
			errs = append(errs, errors.Errorf("deleting old snapshot %s: %w", snap.Name, err))
			continue
		}
		zerolog.Ctx(ctx).Debug().Str("snapshot", snap.Path).Msg("pruned old snapshot")
		removed = append(removed, snap)
	}

	return removed, errors.Join(errs...)
}
