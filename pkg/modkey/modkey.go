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

// Package modkey derives the domain identifier of a record file from its
// file name, e.g. "Oblivion.esm" or "MyPlugin.esp".
package modkey

import (
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Type is the kind of record file, taken from its extension
type Type int

const (
	Plugin Type = iota // .esp
	Master             // .esm
	Light              // .esl
)

// Extension returns the file extension of the type, including the dot
func (t Type) Extension() string {
	switch t {
	case Master:
		return ".esm"
	case Light:
		return ".esl"
	default:
		return ".esp"
	}
}

// String returns a string representation of Type
func (t Type) String() string {
	switch t {
	case Master:
		return "master"
	case Light:
		return "light"
	default:
		return "plugin"
	}
}

// ErrInvalid is returned when a file name does not form a key
var ErrInvalid = errors.Base("invalid mod key")

// 🔑 ModKey identifies a record file by name and type
type ModKey struct {
	Name string
	Type Type
}

// 🏭 Parse derives a key from a file name. Only the base name is considered
// and the extension is matched case-insensitively.
func Parse(fileName string) (ModKey, error) {
	base := filepath.Base(strings.TrimSpace(fileName))
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	if strings.TrimSpace(name) == "" || base == "." || base == string(filepath.Separator) {
		return ModKey{}, errors.WithDetails(ErrInvalid, "file", fileName)
	}

	var typ Type
	switch strings.ToLower(ext) {
	case ".esp":
		typ = Plugin
	case ".esm":
		typ = Master
	case ".esl":
		typ = Light
	default:
		return ModKey{}, errors.WithDetails(ErrInvalid, "file", fileName, "extension", ext)
	}

	return ModKey{Name: name, Type: typ}, nil
}

// FileName returns the canonical file name of the key
func (k ModKey) FileName() string {
	return k.Name + k.Type.Extension()
}

// IsZero reports whether the key was never set
func (k ModKey) IsZero() bool {
	return k.Name == ""
}

// String implements fmt.Stringer
func (k ModKey) String() string {
	return k.FileName()
}
