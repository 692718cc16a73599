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

package pathops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"
)

// maxPatchSize bounds the files that get a text patch in a difference report
const maxPatchSize = 256 * 1024

// 📊 DifferenceKind classifies one entry of a difference report
type DifferenceKind int

const (
	OnlyInLeft     DifferenceKind = iota // present in the left root only
	OnlyInRight                          // present in the right root only
	ContentDiffers                       // present in both with different bytes
)

// String returns a string representation of DifferenceKind
func (k DifferenceKind) String() string {
	switch k {
	case OnlyInLeft:
		return "only in left"
	case OnlyInRight:
		return "only in right"
	case ContentDiffers:
		return "content differs"
	default:
		return "unknown"
	}
}

// 📝 Difference describes one mismatching path between two artifacts
type Difference struct {
	Path  string         // slash-separated path relative to the compared roots
	Kind  DifferenceKind // what kind of mismatch
	Patch string         // text patch from left to right, for small text files
}

// String returns a one-line description of the difference
func (d Difference) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Kind)
}

// 🔬 Differences explains why two files, or two directory trees, are not
// equal. It returns nil when they are.
func Differences(left, right string) ([]Difference, error) {
	if IsDir(left) && IsDir(right) {
		return treeDifferences(left, right)
	}
	if IsDir(left) || IsDir(right) {
		return nil, errors.Errorf("cannot compare a file with a directory: %s, %s", left, right)
	}
	if FilesAreEqual(left, right) {
		return nil, nil
	}
	switch {
	case !Exists(left):
		return []Difference{{Path: filepath.Base(right), Kind: OnlyInRight}}, nil
	case !Exists(right):
		return []Difference{{Path: filepath.Base(left), Kind: OnlyInLeft}}, nil
	}
	return []Difference{fileDifference(filepath.Base(left), left, right)}, nil
}

func treeDifferences(left, right string) ([]Difference, error) {
	lfiles, err := ListFiles(left)
	if err != nil {
		return nil, err
	}
	rfiles, err := ListFiles(right)
	if err != nil {
		return nil, err
	}

	var diffs []Difference
	i, j := 0, 0
	for i < len(lfiles) || j < len(rfiles) {
		switch {
		case j >= len(rfiles) || (i < len(lfiles) && lfiles[i] < rfiles[j]):
			diffs = append(diffs, Difference{Path: lfiles[i], Kind: OnlyInLeft})
			i++
		case i >= len(lfiles) || rfiles[j] < lfiles[i]:
			diffs = append(diffs, Difference{Path: rfiles[j], Kind: OnlyInRight})
			j++
		default:
			rel := lfiles[i]
			l := filepath.Join(left, filepath.FromSlash(rel))
			r := filepath.Join(right, filepath.FromSlash(rel))
			if !FilesAreEqual(l, r) {
				diffs = append(diffs, fileDifference(rel, l, r))
			}
			i++
			j++
		}
	}
	return diffs, nil
}

func fileDifference(rel, left, right string) Difference {
	diff := Difference{Path: rel, Kind: ContentDiffers}

	lcontent, lerr := readSmall(left)
	rcontent, rerr := readSmall(right)
	if lerr != nil || rerr != nil {
		return diff
	}
	if !utf8.Valid(lcontent) || !utf8.Valid(rcontent) {
		diff.Patch = fmt.Sprintf("binary content: %d bytes vs %d bytes, first difference at offset %d",
			len(lcontent), len(rcontent), firstMismatch(lcontent, rcontent))
		return diff
	}

	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(string(lcontent), string(rcontent))
	diff.Patch = strings.TrimSpace(dmp.PatchToText(patches))
	return diff
}

func readSmall(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxPatchSize {
		return nil, errors.Errorf("%s is too large to diff", path)
	}
	return os.ReadFile(path)
}

func firstMismatch(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
