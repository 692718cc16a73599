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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/gitsync/pkg/backup"
	"github.com/walteh/gitsync/pkg/location"
	"github.com/walteh/gitsync/pkg/modkey"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultWorkers is how many mappings run at once when unset
	DefaultWorkers = 4

	// DefaultFile is the settings file looked up when no path is given
	DefaultFile = ".gitsync.yaml"
)

var ErrInvalid = errors.Base("invalid settings")

// 🔌 Parser is the interface for settings parsers
type Parser interface {
	// 📝 Parse parses the settings from bytes
	Parse(ctx context.Context, data []byte) (*Settings, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔗 Mapping pairs a binary record file with the folder it is exported to
type Mapping struct {
	Nickname   string `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	BinaryPath string `json:"binary_path,omitempty" yaml:"binary_path,omitempty"`
	FolderPath string `json:"folder_path,omitempty" yaml:"folder_path,omitempty"`
}

// 📁 Grouping is a named set of mappings
type Grouping struct {
	Nickname string    `json:"nickname" yaml:"nickname"`
	Mappings []Mapping `json:"mappings" yaml:"mappings"`
}

// 📚 Settings is the complete settings file
type Settings struct {
	BackupRoot       string     `json:"backup_root,omitempty" yaml:"backup_root,omitempty"`
	Retention        int        `json:"retention,omitempty" yaml:"retention,omitempty"`
	Workers          int        `json:"workers,omitempty" yaml:"workers,omitempty"`
	CheckCorrectness *bool      `json:"check_correctness,omitempty" yaml:"check_correctness,omitempty"`
	Groupings        []Grouping `json:"groupings" yaml:"groupings"`

	location string
}

// 🏭 Default returns settings with every default applied and no mappings
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

// 🎯 Load loads the settings from a file
func Load(ctx context.Context, path string) (*Settings, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading settings")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading settings file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	s, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing settings: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving settings path: %w", err)
	}
	s.location = abs
	s.resolve(filepath.Dir(abs))

	if err := s.Validate(); err != nil {
		return nil, errors.Errorf("validating settings: %w", err)
	}

	logger.Debug().Int("groupings", len(s.Groupings)).Str("backup_root", s.BackupRoot).Msg("loaded settings")
	return s, nil
}

// 📍 Location is the absolute path the settings were loaded from
func (s *Settings) Location() string {
	return s.location
}

func (s *Settings) applyDefaults() {
	if strings.TrimSpace(s.BackupRoot) == "" {
		s.BackupRoot = filepath.Join(os.TempDir(), "gitsync")
	}
	if s.Retention == 0 {
		s.Retention = backup.DefaultRetention
	}
	if s.Workers == 0 {
		s.Workers = DefaultWorkers
	}
	if s.CheckCorrectness == nil {
		check := true
		s.CheckCorrectness = &check
	}
	for gi := range s.Groupings {
		for mi := range s.Groupings[gi].Mappings {
			m := &s.Groupings[gi].Mappings[mi]
			if m.Nickname == "" && m.BinaryPath != "" {
				m.Nickname = filepath.Base(m.BinaryPath)
			}
		}
	}
}

// resolve makes relative paths absolute against dir
func (s *Settings) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	if s.BackupRoot != "" {
		s.BackupRoot = abs(s.BackupRoot)
	}
	for gi := range s.Groupings {
		for mi := range s.Groupings[gi].Mappings {
			m := &s.Groupings[gi].Mappings[mi]
			m.BinaryPath = abs(m.BinaryPath)
			m.FolderPath = abs(m.FolderPath)
		}
	}
}

// 🔍 Validate applies defaults and checks the settings
func (s *Settings) Validate() error {
	s.applyDefaults()

	if s.Retention < 1 {
		return errors.WithDetails(ErrInvalid, "reason", "retention must be at least 1", "retention", s.Retention)
	}
	if s.Workers < 1 {
		return errors.WithDetails(ErrInvalid, "reason", "workers must be at least 1", "workers", s.Workers)
	}

	groups := map[string]struct{}{}
	for _, g := range s.Groupings {
		if strings.TrimSpace(g.Nickname) == "" {
			return errors.WithDetails(ErrInvalid, "reason", "grouping nickname is required")
		}
		if _, ok := groups[g.Nickname]; ok {
			return errors.WithDetails(ErrInvalid, "reason", "duplicate grouping nickname", "grouping", g.Nickname)
		}
		groups[g.Nickname] = struct{}{}

		seen := map[string]struct{}{}
		for i, m := range g.Mappings {
			if m.BinaryPath == "" && m.FolderPath == "" {
				return errors.WithDetails(ErrInvalid, "reason", "mapping needs a binary_path or a folder_path", "grouping", g.Nickname, "index", i)
			}
			if m.Nickname == "" {
				return errors.WithDetails(ErrInvalid, "reason", "mapping without binary_path needs a nickname", "grouping", g.Nickname, "index", i)
			}
			if _, ok := seen[m.Nickname]; ok {
				return errors.WithDetails(ErrInvalid, "reason", "duplicate mapping nickname", "grouping", g.Nickname, "mapping", m.Nickname)
			}
			seen[m.Nickname] = struct{}{}
		}
	}
	return nil
}

// ✅ ShouldCheckCorrectness reports whether conversions verify by round trip
func (s *Settings) ShouldCheckCorrectness() bool {
	return s.CheckCorrectness == nil || *s.CheckCorrectness
}

// 💾 BackupRootFor is where snapshots of a mapping's destinations go:
// <backup_root>/<grouping>/<mapping>. Mapping nicknames are only unique
// within their grouping, so the grouping keeps roots apart.
func (s *Settings) BackupRootFor(e Entry) string {
	if s.BackupRoot == "" {
		return ""
	}
	return filepath.Join(s.BackupRoot, e.Grouping, e.Mapping.Nickname)
}

// 📌 Entry is a mapping together with the grouping it belongs to
type Entry struct {
	Grouping string
	Mapping  Mapping
}

// ID is grouping/mapping
func (e Entry) ID() string {
	return e.Grouping + "/" + e.Mapping.Nickname
}

// 📋 Entries lists every mapping in file order
func (s *Settings) Entries() []Entry {
	var out []Entry
	for _, g := range s.Groupings {
		for _, m := range g.Mappings {
			out = append(out, Entry{Grouping: g.Nickname, Mapping: m})
		}
	}
	return out
}

// 🎯 Select filters Entries by grouping nickname and by glob patterns. A
// pattern matches either the mapping nickname or grouping/mapping. An empty
// group or pattern list selects everything.
func (s *Settings) Select(group string, patterns []string) ([]Entry, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid mapping pattern %q", p)
		}
	}

	var out []Entry
	for _, e := range s.Entries() {
		if group != "" && e.Grouping != group {
			continue
		}
		if len(patterns) > 0 && !matchesAny(patterns, e) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func matchesAny(patterns []string, e Entry) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, e.Mapping.Nickname); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, e.ID()); ok {
			return true
		}
	}
	return false
}

// 📄 Binary is the mapping's record file
func (m Mapping) Binary() (location.File, error) {
	if m.BinaryPath == "" {
		return location.File{}, errors.Errorf("mapping %s has no binary_path", m.Nickname)
	}
	return location.NewFile(m.BinaryPath)
}

// 📂 Folder is the mapping's exported folder
func (m Mapping) Folder() (location.Directory, error) {
	if m.FolderPath == "" {
		return location.Directory{}, errors.Errorf("mapping %s has no folder_path", m.Nickname)
	}
	return location.NewDirectory(m.FolderPath)
}

// 🔑 Key derives the mod key from the binary file name
func (m Mapping) Key() (modkey.ModKey, error) {
	return modkey.Parse(filepath.Base(m.BinaryPath))
}

// 📝 String returns a string representation of the mapping
func (m Mapping) String() string {
	return fmt.Sprintf("%s: %s <-> %s", m.Nickname, m.BinaryPath, m.FolderPath)
}
