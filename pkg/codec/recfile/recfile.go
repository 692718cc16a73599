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

// Package recfile is a small record-file format used to exercise the
// conversion engine end to end.
//
// A record file is a header followed by records. Each record has a four
// character type, a numeric id and an ordered list of named string fields.
// The folder form is a manifest.yaml listing the records in file order plus
// one YAML document per record under records/<TYPE>/<ID>.yaml, so changes to
// a single record show up as a change to a single text file.
package recfile

import (
	"regexp"

	"gitlab.com/tozd/go/errors"
)

// Magic opens every record file
const Magic = "GSRF"

// Version is the only format version this package writes
const Version uint16 = 1

const flagMaster uint16 = 1 << 0

var (
	ErrMalformed = errors.Base("malformed record file")
	ErrDuplicate = errors.Base("duplicate record")
	ErrBadType   = errors.Base("invalid record type")
)

var typePattern = regexp.MustCompile(`^[A-Z0-9_]{4}$`)

// 📝 Field is one named value of a record
type Field struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// 📦 Record is a single entry of a plugin
type Record struct {
	Type   string
	ID     uint32
	Fields []Field
}

// 🧩 Plugin is the decoded content of a record file
type Plugin struct {
	Master  bool
	Author  string
	Records []Record
}

// Validate checks the invariants both forms rely on
func (p *Plugin) Validate() error {
	seen := make(map[recordRef]struct{}, len(p.Records))
	for _, r := range p.Records {
		if !typePattern.MatchString(r.Type) {
			return errors.WithDetails(ErrBadType, "type", r.Type)
		}
		ref := recordRef{Type: r.Type, ID: r.ID}
		if _, ok := seen[ref]; ok {
			return errors.WithDetails(ErrDuplicate, "record", ref.String())
		}
		seen[ref] = struct{}{}
	}
	return nil
}

// Find returns the record with the given type and id
func (p *Plugin) Find(typ string, id uint32) (*Record, bool) {
	for i := range p.Records {
		if p.Records[i].Type == typ && p.Records[i].ID == id {
			return &p.Records[i], true
		}
	}
	return nil, false
}
