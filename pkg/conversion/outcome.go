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
	"fmt"
	"strings"

	"github.com/walteh/gitsync/pkg/modkey"
	"github.com/walteh/gitsync/pkg/pathops"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Outcome is how a conversion ended when it did not fail outright
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	Success
	SourceMissing
	IdentifierInvalid
	CorruptionDetected
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case SourceMissing:
		return "SourceMissing"
	case IdentifierInvalid:
		return "ModKeyInvalid"
	case CorruptionDetected:
		return "CorruptionDetected"
	default:
		return "Unknown"
	}
}

// 📬 Result describes a finished conversion
type Result struct {
	Outcome Outcome
	Key     modkey.ModKey

	// Written is set when the destination was replaced. A Success that
	// found the destination already equal to the export leaves it unset.
	Written bool

	// Snapshot is the backup directory that received the previous
	// destination, empty when no backup was taken.
	Snapshot string

	// Differences lists what the round trip changed, set only for
	// CorruptionDetected.
	Differences []pathops.Difference
}

// 🧭 Direction picks which side of a mapping is the source
type Direction int

const (
	ToBinary Direction = iota + 1
	ToXML
)

var ErrUnknownDirection = errors.Base("unknown direction")

func (d Direction) String() string {
	switch d {
	case ToBinary:
		return "ToBinary"
	case ToXML:
		return "ToXML"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// 🔍 ParseDirection accepts ToBinary and ToXML in any case, plus the
// to-binary, to-xml and to-git spellings used on the command line.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tobinary", "to-binary", "binary":
		return ToBinary, nil
	case "toxml", "to-xml", "to-git", "togit", "xml", "git":
		return ToXML, nil
	}
	return 0, errors.WithDetails(ErrUnknownDirection, "direction", s)
}

// Stage is the step of the protocol an IOError happened in
type Stage string

const (
	StageStaging Stage = "staging"
	StageBackup  Stage = "backup"
	StageSwap    Stage = "swap"
	StageCleanup Stage = "cleanup"
)

// 💥 IOError is a filesystem failure in the engine itself. The flags say
// what state the destination was left in.
type IOError struct {
	Stage Stage
	Path  string
	Err   error

	// DestinationIntact is set when the destination still holds exactly
	// what it held before the conversion started (or the new export, for
	// StageCleanup).
	DestinationIntact bool

	// Restored is set when the swap failed and the previous destination
	// was moved back into place.
	Restored bool
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
