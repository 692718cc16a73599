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

// Package location provides the two path value types the conversion engine
// moves artifacts between: a single binary file and a directory tree.
//
// Locations are immutable. Existence is never cached; every call to Exists
// goes to the filesystem.
package location

import (
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// 📄 File is an absolute path to a single file
type File struct {
	path string
}

// 📁 Directory is an absolute path to a directory
type Directory struct {
	path string
}

// 🏭 NewFile creates a file location, resolving the path to an absolute one
func NewFile(path string) (File, error) {
	abs, err := absolute(path)
	if err != nil {
		return File{}, err
	}
	return File{path: abs}, nil
}

// 🏭 NewDirectory creates a directory location, resolving the path to an absolute one
func NewDirectory(path string) (Directory, error) {
	abs, err := absolute(path)
	if err != nil {
		return Directory{}, err
	}
	return Directory{path: abs}, nil
}

func absolute(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("resolving absolute path of %q: %w", path, err)
	}
	return abs, nil
}

// Path returns the absolute path
func (f File) Path() string { return f.path }

// Name returns the base name, including the extension
func (f File) Name() string { return filepath.Base(f.path) }

// Dir returns the directory containing the file
func (f File) Dir() Directory { return Directory{path: filepath.Dir(f.path)} }

// IsZero reports whether the location was never set
func (f File) IsZero() bool { return f.path == "" }

// Exists reports whether a regular (non-directory) file exists at the path
func (f File) Exists() bool {
	if f.path == "" {
		return false
	}
	info, err := os.Stat(f.path)
	return err == nil && !info.IsDir()
}

// Delete removes the file; a missing file is not an error
func (f File) Delete() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("deleting file %s: %w", f.path, err)
	}
	return nil
}

// Join returns a file location below the directory
func (d Directory) Join(elem ...string) File {
	return File{path: filepath.Join(append([]string{d.path}, elem...)...)}
}

// Sub returns a directory location below the directory
func (d Directory) Sub(elem ...string) Directory {
	return Directory{path: filepath.Join(append([]string{d.path}, elem...)...)}
}

// Path returns the absolute path
func (d Directory) Path() string { return d.path }

// Name returns the base name of the directory
func (d Directory) Name() string { return filepath.Base(d.path) }

// Parent returns the directory containing this one
func (d Directory) Parent() Directory { return Directory{path: filepath.Dir(d.path)} }

// IsZero reports whether the location was never set
func (d Directory) IsZero() bool { return d.path == "" }

// Exists reports whether a directory exists at the path
func (d Directory) Exists() bool {
	if d.path == "" {
		return false
	}
	info, err := os.Stat(d.path)
	return err == nil && info.IsDir()
}

// Create creates the directory and any missing parents
func (d Directory) Create() error {
	if err := os.MkdirAll(d.path, 0755); err != nil {
		return errors.Errorf("creating directory %s: %w", d.path, err)
	}
	return nil
}

// Delete removes the directory and everything below it
func (d Directory) Delete() error {
	if err := os.RemoveAll(d.path); err != nil {
		return errors.Errorf("deleting directory %s: %w", d.path, err)
	}
	return nil
}

// String implements fmt.Stringer
func (f File) String() string { return f.path }

// String implements fmt.Stringer
func (d Directory) String() string { return d.path }
