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

// Package pathops holds the filesystem primitives the conversion engine is
// built from: live existence checks, byte-level file and tree equality,
// best-effort tree copies and the single-rename swap.
package pathops

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const compareChunkSize = 64 * 1024

// 🔍 Exists reports whether anything exists at path. It is never cached.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// 🔍 IsDir reports whether path is an existing directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// 🟰 FilesAreEqual reports whether a and b are both regular files with the
// same length and the same bytes. A missing file makes the result false.
func FilesAreEqual(a, b string) bool {
	ainfo, err := os.Stat(a)
	if err != nil || ainfo.IsDir() {
		return false
	}
	binfo, err := os.Stat(b)
	if err != nil || binfo.IsDir() {
		return false
	}
	if ainfo.Size() != binfo.Size() {
		return false
	}

	af, err := os.Open(a)
	if err != nil {
		return false
	}
	defer af.Close()
	bf, err := os.Open(b)
	if err != nil {
		return false
	}
	defer bf.Close()

	return readersAreEqual(bufio.NewReaderSize(af, compareChunkSize), bufio.NewReaderSize(bf, compareChunkSize))
}

func readersAreEqual(a, b io.Reader) bool {
	abuf := make([]byte, compareChunkSize)
	bbuf := make([]byte, compareChunkSize)
	for {
		an, aerr := io.ReadFull(a, abuf)
		bn, berr := io.ReadFull(b, bbuf)
		if an != bn || !bytes.Equal(abuf[:an], bbuf[:bn]) {
			return false
		}
		aeof := aerr == io.EOF || aerr == io.ErrUnexpectedEOF
		beof := berr == io.EOF || berr == io.ErrUnexpectedEOF
		if aeof || beof {
			return aeof && beof
		}
		if aerr != nil || berr != nil {
			return false
		}
	}
}

// 🌳 DirectoryTreesAreEqual reports whether both roots contain the same set of
// relative file paths with pairwise equal contents. Directories that hold no
// files are not compared.
func DirectoryTreesAreEqual(a, b string) bool {
	if !IsDir(a) || !IsDir(b) {
		return false
	}
	afiles, err := ListFiles(a)
	if err != nil {
		return false
	}
	bfiles, err := ListFiles(b)
	if err != nil {
		return false
	}
	if len(afiles) != len(bfiles) {
		return false
	}
	for i := range afiles {
		if afiles[i] != bfiles[i] {
			return false
		}
	}
	for _, rel := range afiles {
		if !FilesAreEqual(filepath.Join(a, filepath.FromSlash(rel)), filepath.Join(b, filepath.FromSlash(rel))) {
			return false
		}
	}
	return true
}

// 📋 ListFiles returns every file below root as a sorted list of
// slash-separated relative paths
func ListFiles(root string) ([]string, error) {
	var files []string
	err := doublestar.GlobWalk(os.DirFS(root), "**", func(path string, d fs.DirEntry) error {
		files = append(files, path)
		return nil
	}, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, errors.Errorf("listing files below %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// walkTree lists the directories (excluding root itself) and files below
// root as sorted slash-separated relative paths. An unreadable root always
// fails. Other unreadable entries fail the walk when strict is set and are
// otherwise logged and left out.
func walkTree(ctx context.Context, fsys fs.FS, strict bool) (dirs, files []string, err error) {
	logger := zerolog.Ctx(ctx)
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if strict || path == "." {
				return err
			}
			logger.Warn().Err(err).Str("path", path).Msg("reading entry during copy, skipping")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		switch {
		case path == ".":
		case d.IsDir():
			dirs = append(dirs, path)
		default:
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

// 📦 CopyTree recursively copies src into dst. Every subdirectory is created
// first, then every file is copied. Unreadable entries and individual
// failures are logged and skipped; only an unreadable src aborts the copy.
func CopyTree(ctx context.Context, src, dst string) error {
	return copyTree(ctx, src, dst, false)
}

func copyTree(ctx context.Context, src, dst string, strict bool) error {
	logger := zerolog.Ctx(ctx)

	dirs, files, err := walkTree(ctx, os.DirFS(src), strict)
	if err != nil {
		return errors.Errorf("listing %s: %w", src, err)
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return errors.Errorf("creating directory %s: %w", dst, err)
	}

	for _, rel := range dirs {
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if err := os.MkdirAll(target, 0755); err != nil {
			if strict {
				return errors.Errorf("creating directory %s: %w", target, err)
			}
			logger.Warn().Err(err).Str("directory", target).Msg("creating directory during copy, skipping")
		}
	}

	for _, rel := range files {
		from := filepath.Join(src, filepath.FromSlash(rel))
		to := filepath.Join(dst, filepath.FromSlash(rel))
		if err := CopyFile(from, to); err != nil {
			if strict {
				return err
			}
			logger.Warn().Err(err).Str("from", from).Str("to", to).Msg("copying file during copy, skipping")
		}
	}

	return nil
}

// 📄 CopyFile copies a single file, creating parent directories if needed.
// The permission bits and modification time of src are carried over.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Errorf("reading source file info: %w", err)
	}

	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	destination, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return errors.Errorf("copying file content: %w", err)
	}
	if err := destination.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return errors.Errorf("preserving modification time: %w", err)
	}

	return nil
}

// 🔄 AtomicReplace moves tmp to final with a single rename. final must not be
// a directory; a file at final is replaced in place.
//
// When tmp and final live on different filesystems the artifact is first
// copied next to final and that copy is renamed, so final is still never
// observed absent or half-written.
func AtomicReplace(ctx context.Context, tmp, final string) error {
	if err := os.MkdirAll(filepath.Dir(final), 0755); err != nil {
		return errors.Errorf("creating parent of %s: %w", final, err)
	}

	err := os.Rename(tmp, final)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return errors.Errorf("renaming %s to %s: %w", tmp, final, err)
	}

	zerolog.Ctx(ctx).Debug().Str("from", tmp).Str("to", final).Msg("cross-device swap, staging a sibling copy")

	sibling := final + ".gitsync-swap"
	if err := os.RemoveAll(sibling); err != nil {
		return errors.Errorf("clearing swap sibling %s: %w", sibling, err)
	}
	if err := copyAny(ctx, tmp, sibling); err != nil {
		_ = os.RemoveAll(sibling)
		return errors.Errorf("copying %s next to %s: %w", tmp, final, err)
	}
	if err := os.Rename(sibling, final); err != nil {
		_ = os.RemoveAll(sibling)
		return errors.Errorf("renaming %s to %s: %w", sibling, final, err)
	}
	if err := os.RemoveAll(tmp); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", tmp).Msg("removing staged artifact after swap")
	}
	return nil
}

// 🚚 Move moves src to dst, falling back to copy and delete across
// filesystems. Unlike AtomicReplace the fallback is not atomic.
func Move(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("creating parent of %s: %w", dst, err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return errors.Errorf("moving %s to %s: %w", src, dst, err)
	}

	if err := copyAny(ctx, src, dst); err != nil {
		return errors.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := os.RemoveAll(src); err != nil {
		return errors.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

// 🗑️ Delete removes path and everything below it; a missing path is not an error
func Delete(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

func copyAny(ctx context.Context, src, dst string) error {
	if IsDir(src) {
		return copyTree(ctx, src, dst, true)
	}
	return CopyFile(src, dst)
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}
