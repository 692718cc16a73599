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

package conversion

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/gitsync/pkg/backup"
	"github.com/walteh/gitsync/pkg/location"
	"github.com/walteh/gitsync/pkg/modkey"
	"github.com/walteh/gitsync/pkg/pathops"
	"gitlab.com/tozd/go/errors"
)

// 📁 TempDirProvider hands out a fresh, exclusively owned directory for
// staging a conversion whose destination is near.
type TempDirProvider func(near string) (string, error)

// NearDestination stages in a hidden directory next to the destination so
// the final swap is a rename on one filesystem. It falls back to the system
// temp directory when the destination's parent does not exist yet.
func NearDestination(near string) (string, error) {
	parent := filepath.Dir(near)
	if pathops.IsDir(parent) {
		dir, err := os.MkdirTemp(parent, ".gitsync-*")
		if err == nil {
			return dir, nil
		}
	}
	return SystemTemp(near)
}

// SystemTemp stages below os.TempDir
func SystemTemp(string) (string, error) {
	dir, err := os.MkdirTemp("", "gitsync-*")
	if err != nil {
		return "", errors.Errorf("creating temp directory: %w", err)
	}
	return dir, nil
}

// Snapshotter takes backups of a destination before it is replaced.
// *backup.Rotator is the implementation the engine uses by default.
type Snapshotter interface {
	Rotate(ctx context.Context, target, root string, retention int) (backup.Snapshot, bool, error)
	Capture(ctx context.Context, target, root string, retention int) (backup.Snapshot, bool, error)
}

// ⚙️ Options are the engine defaults. Every call can override the backup
// root, the retention and the correctness check.
type Options struct {
	BackupRoot           string
	Retention            int
	SkipCorrectnessCheck bool
	TempDir              TempDirProvider
	Rotator              Snapshotter

	// Swap moves a staged artifact over the destination. Defaults to
	// pathops.AtomicReplace.
	Swap func(ctx context.Context, tmp, final string) error
	// RemoveStaging deletes a staging directory. Defaults to os.RemoveAll.
	RemoveStaging func(dir string) error
}

type callConfig struct {
	backupRoot string
	retention  int
	check      bool
}

// CallOption adjusts a single conversion
type CallOption func(*callConfig)

// WithoutCorrectnessCheck skips the round-trip verification
func WithoutCorrectnessCheck() CallOption {
	return func(c *callConfig) { c.check = false }
}

// WithCorrectnessCheck sets the round-trip verification explicitly
func WithCorrectnessCheck(enabled bool) CallOption {
	return func(c *callConfig) { c.check = enabled }
}

// WithBackupRoot sets where the previous destination is snapshotted. An
// empty root disables backups for the call.
func WithBackupRoot(root string) CallOption {
	return func(c *callConfig) { c.backupRoot = root }
}

// WithRetention sets how many snapshots survive pruning
func WithRetention(n int) CallOption {
	return func(c *callConfig) { c.retention = n }
}

// 🔄 Engine converts between the binary and folder forms of M
type Engine[M any] struct {
	instructions Instructions[M]
	opts         Options
}

// 🏭 New creates an engine around a codec
func New[M any](instructions Instructions[M], opts Options) (*Engine[M], error) {
	if instructions == nil {
		return nil, errors.New("instructions are required")
	}
	if opts.Retention < 1 {
		opts.Retention = backup.DefaultRetention
	}
	if opts.TempDir == nil {
		opts.TempDir = NearDestination
	}
	if opts.Rotator == nil {
		opts.Rotator = backup.NewRotator()
	}
	if opts.Swap == nil {
		opts.Swap = pathops.AtomicReplace
	}
	if opts.RemoveStaging == nil {
		opts.RemoveStaging = os.RemoveAll
	}
	return &Engine[M]{instructions: instructions, opts: opts}, nil
}

func (e *Engine[M]) config(opts []CallOption) callConfig {
	cfg := callConfig{
		backupRoot: e.opts.BackupRoot,
		retention:  e.opts.Retention,
		check:      !e.opts.SkipCorrectnessCheck,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.retention < 1 {
		cfg.retention = backup.DefaultRetention
	}
	return cfg
}

// 🧭 Convert runs the conversion named by dir between a binary file and its folder
func (e *Engine[M]) Convert(ctx context.Context, dir Direction, binary location.File, folder location.Directory, opts ...CallOption) (Result, error) {
	switch dir {
	case ToBinary:
		return e.ConvertToBinary(ctx, folder, binary, opts...)
	case ToXML:
		return e.ConvertToFolder(ctx, binary, folder, opts...)
	}
	return Result{}, errors.WithDetails(ErrUnknownDirection, "direction", int(dir))
}

// staging is the temp directory a single conversion owns
type staging struct {
	dir    location.Directory
	remove func(dir string) error
}

func (e *Engine[M]) stage(near string) (*staging, error) {
	path, err := e.opts.TempDir(near)
	if err != nil {
		return nil, &IOError{Stage: StageStaging, Path: near, Err: err, DestinationIntact: true}
	}
	dir, err := location.NewDirectory(path)
	if err != nil {
		_ = os.RemoveAll(path)
		return nil, &IOError{Stage: StageStaging, Path: path, Err: err, DestinationIntact: true}
	}
	return &staging{dir: dir, remove: e.opts.RemoveStaging}, nil
}

// cleanup removes the staging directory. A failure after a successful swap
// becomes the call's error while the result is kept.
func (s *staging) cleanup(ctx context.Context, err *error) {
	rerr := s.remove(s.dir.Path())
	if rerr == nil {
		return
	}
	zerolog.Ctx(ctx).Error().Err(rerr).Str("stage", string(StageCleanup)).Str("path", s.dir.Path()).Msg("removing staging directory")
	if *err == nil {
		*err = &IOError{Stage: StageCleanup, Path: s.dir.Path(), Err: rerr, DestinationIntact: true}
	}
}

// 📦 ConvertToBinary encodes the folder src into the record file dst
func (e *Engine[M]) ConvertToBinary(ctx context.Context, src location.Directory, dst location.File, opts ...CallOption) (res Result, err error) {
	cfg := e.config(opts)
	logger := zerolog.Ctx(ctx).With().
		Str("direction", ToBinary.String()).
		Str("source", src.Path()).
		Str("destination", dst.Path()).
		Logger()
	ctx = logger.WithContext(ctx)

	if !src.Exists() {
		logger.Debug().Msg("source folder missing")
		return Result{Outcome: SourceMissing}, nil
	}

	key, kerr := modkey.Parse(dst.Name())
	if kerr != nil {
		logger.Debug().Err(kerr).Msg("destination name is not a mod key")
		return Result{Outcome: IdentifierInvalid}, nil
	}
	res.Key = key

	st, err := e.stage(dst.Path())
	if err != nil {
		return res, err
	}
	defer st.cleanup(ctx, &err)

	staged := st.dir.Join(key.FileName())

	var record M
	if err := guard(OpDecodeFolder, false, src.Path(), func() (err error) {
		record, err = e.instructions.DecodeFolder(ctx, key, src)
		return err
	}); err != nil {
		return res, err
	}
	if err := guard(OpEncodeBinary, false, staged.Path(), func() error {
		return e.instructions.EncodeBinary(ctx, key, record, staged)
	}); err != nil {
		return res, err
	}

	if cfg.check {
		reexport := st.dir.Sub("reexport")
		if err := reexport.Create(); err != nil {
			return res, &IOError{Stage: StageStaging, Path: reexport.Path(), Err: err, DestinationIntact: true}
		}
		var again M
		if err := guard(OpDecodeBinary, true, staged.Path(), func() (err error) {
			again, err = e.instructions.DecodeBinary(ctx, key, staged)
			return err
		}); err != nil {
			return res, err
		}
		if err := guard(OpEncodeFolder, true, reexport.Path(), func() error {
			return e.instructions.EncodeFolder(ctx, key, again, reexport)
		}); err != nil {
			return res, err
		}
		if !pathops.DirectoryTreesAreEqual(src.Path(), reexport.Path()) {
			res.Outcome = CorruptionDetected
			res.Differences = explain(ctx, src.Path(), reexport.Path())
			logger.Warn().Int("differences", len(res.Differences)).Msg("round trip did not reproduce the source folder")
			return res, nil
		}
	}

	if dst.Exists() {
		if pathops.FilesAreEqual(staged.Path(), dst.Path()) {
			logger.Debug().Msg("destination already up to date")
			res.Outcome = Success
			return res, nil
		}
		// the old file stays in place until the rename replaces it
		snap, _, berr := e.opts.Rotator.Capture(ctx, dst.Path(), cfg.backupRoot, cfg.retention)
		if berr != nil {
			logger.Error().Err(berr).Str("stage", string(StageBackup)).Msg("backing up destination")
			return res, &IOError{Stage: StageBackup, Path: dst.Path(), Err: berr, DestinationIntact: true}
		}
		res.Snapshot = snap.Path
	}

	if serr := e.opts.Swap(ctx, staged.Path(), dst.Path()); serr != nil {
		logger.Error().Err(serr).Str("stage", string(StageSwap)).Msg("swapping staged file into place")
		return res, &IOError{Stage: StageSwap, Path: dst.Path(), Err: serr, DestinationIntact: true}
	}

	logger.Debug().Str("snapshot", res.Snapshot).Msg("wrote binary")
	res.Outcome = Success
	res.Written = true
	return res, nil
}

// 📂 ConvertToFolder decodes the record file src into the folder dst.
// Files already in dst that the codec does not write are carried over.
func (e *Engine[M]) ConvertToFolder(ctx context.Context, src location.File, dst location.Directory, opts ...CallOption) (res Result, err error) {
	cfg := e.config(opts)
	logger := zerolog.Ctx(ctx).With().
		Str("direction", ToXML.String()).
		Str("source", src.Path()).
		Str("destination", dst.Path()).
		Logger()
	ctx = logger.WithContext(ctx)

	if !src.Exists() {
		logger.Debug().Msg("source file missing")
		return Result{Outcome: SourceMissing}, nil
	}

	key, kerr := modkey.Parse(src.Name())
	if kerr != nil {
		logger.Debug().Err(kerr).Msg("source name is not a mod key")
		return Result{Outcome: IdentifierInvalid}, nil
	}
	res.Key = key

	st, err := e.stage(dst.Path())
	if err != nil {
		return res, err
	}
	defer st.cleanup(ctx, &err)

	export := st.dir.Sub("export")
	if err := export.Create(); err != nil {
		return res, &IOError{Stage: StageStaging, Path: export.Path(), Err: err, DestinationIntact: true}
	}
	if dst.Exists() {
		if cerr := pathops.CopyTree(ctx, dst.Path(), export.Path()); cerr != nil {
			logger.Warn().Err(cerr).Msg("carrying existing folder into staging")
		}
	}

	var record M
	if err := guard(OpDecodeBinary, false, src.Path(), func() (err error) {
		record, err = e.instructions.DecodeBinary(ctx, key, src)
		return err
	}); err != nil {
		return res, err
	}
	if err := guard(OpEncodeFolder, false, export.Path(), func() error {
		return e.instructions.EncodeFolder(ctx, key, record, export)
	}); err != nil {
		return res, err
	}

	if cfg.check {
		reexport := st.dir.Join("reexport" + key.Type.Extension())
		var again M
		if err := guard(OpDecodeFolder, true, export.Path(), func() (err error) {
			again, err = e.instructions.DecodeFolder(ctx, key, export)
			return err
		}); err != nil {
			return res, err
		}
		if err := guard(OpEncodeBinary, true, reexport.Path(), func() error {
			return e.instructions.EncodeBinary(ctx, key, again, reexport)
		}); err != nil {
			return res, err
		}
		if !pathops.FilesAreEqual(src.Path(), reexport.Path()) {
			res.Outcome = CorruptionDetected
			res.Differences = explain(ctx, src.Path(), reexport.Path())
			logger.Warn().Int("differences", len(res.Differences)).Msg("round trip did not reproduce the source file")
			return res, nil
		}
	}

	// set aside holds the previous folder while the swap runs
	var aside string
	if dst.Exists() {
		if pathops.DirectoryTreesAreEqual(export.Path(), dst.Path()) {
			logger.Debug().Msg("destination already up to date")
			res.Outcome = Success
			return res, nil
		}
		snap, rotated, berr := e.opts.Rotator.Rotate(ctx, dst.Path(), cfg.backupRoot, cfg.retention)
		if berr != nil {
			logger.Error().Err(berr).Str("stage", string(StageBackup)).Msg("backing up destination")
			return res, &IOError{Stage: StageBackup, Path: dst.Path(), Err: berr, DestinationIntact: dst.Exists()}
		}
		if rotated {
			res.Snapshot = snap.Path
			aside = snap.Path
		} else {
			aside = st.dir.Sub("previous").Path()
			if merr := pathops.Move(ctx, dst.Path(), aside); merr != nil {
				logger.Error().Err(merr).Str("stage", string(StageBackup)).Msg("removing previous destination")
				return res, &IOError{Stage: StageBackup, Path: dst.Path(), Err: merr, DestinationIntact: dst.Exists()}
			}
		}
	}

	if serr := e.opts.Swap(ctx, export.Path(), dst.Path()); serr != nil {
		ioerr := &IOError{Stage: StageSwap, Path: dst.Path(), Err: serr, DestinationIntact: aside == "" && !dst.Exists()}
		if aside != "" && !dst.Exists() {
			if rerr := pathops.Move(ctx, aside, dst.Path()); rerr != nil {
				logger.Error().Err(rerr).Str("stage", string(StageSwap)).Str("from", aside).Msg("restoring previous destination")
			} else {
				ioerr.Restored = true
				ioerr.DestinationIntact = true
				res.Snapshot = ""
			}
		}
		logger.Error().Err(serr).Str("stage", string(StageSwap)).Bool("restored", ioerr.Restored).Msg("swapping staged folder into place")
		return res, ioerr
	}

	logger.Debug().Str("snapshot", res.Snapshot).Msg("wrote folder")
	res.Outcome = Success
	res.Written = true
	return res, nil
}

// explain lists what differs between the source and the round-tripped copy
func explain(ctx context.Context, source, roundTrip string) []pathops.Difference {
	diffs, err := pathops.Differences(source, roundTrip)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("describing round trip differences")
		return nil
	}
	return diffs
}
