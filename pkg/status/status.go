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

package status

import (
	"fmt"
	"sync"

	"github.com/walteh/gitsync/pkg/config"
	"github.com/walteh/gitsync/pkg/conversion"
	"github.com/walteh/gitsync/pkg/pathops"
)

// 📊 Type is the severity of a side's status
type Type int

const (
	None Type = iota
	Warning
	Error
)

func (t Type) String() string {
	switch t {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "none"
	}
}

// 🏷️ Pair is a status with its message
type Pair struct {
	Type    Type
	Message string
}

// Side is one end of a mapping
type Side int

const (
	BinarySide Side = iota
	FolderSide
)

func (s Side) String() string {
	if s == BinarySide {
		return "binary"
	}
	return "folder"
}

// DestinationSide is the side a conversion in dir writes to
func DestinationSide(dir conversion.Direction) Side {
	if dir == conversion.ToBinary {
		return BinarySide
	}
	return FolderSide
}

// 🔍 Check computes a side's status from its last error and whether path exists now
func Check(path, lastErr string) Pair {
	if lastErr != "" {
		return Pair{Type: Error, Message: lastErr}
	}
	if !pathops.Exists(path) {
		return Pair{Type: Warning, Message: fmt.Sprintf("Path did not exist: %s", path)}
	}
	return Pair{Type: None}
}

// 💬 Message describes a non-successful outcome for the user. It returns ""
// for Success.
func Message(outcome conversion.Outcome, binaryName, source string) string {
	switch outcome {
	case conversion.Success:
		return ""
	case conversion.IdentifierInvalid:
		return fmt.Sprintf("Could not construct a ModKey from given binary path: %s.  Expected .esp/.esm file type.", binaryName)
	case conversion.SourceMissing:
		return fmt.Sprintf("Source path did not exist: %s.", source)
	case conversion.CorruptionDetected:
		return "Correctness logic detected corruption in the sync.  Cancelled."
	default:
		return fmt.Sprintf("Conversion ended with outcome %s.", outcome)
	}
}

// 📋 MappingStatus is both sides of one mapping
type MappingStatus struct {
	Entry  config.Entry
	Binary Pair
	Folder Pair
}

type lastErrors [2]string

// 🗂️ Tracker keeps the last error of each side of each mapping
type Tracker struct {
	mu   sync.RWMutex
	errs map[string]lastErrors
}

// 🏭 NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{errs: make(map[string]lastErrors)}
}

// 📝 Record stores the result of converting entry in dir. The destination
// side's error is replaced, and cleared on success.
func (t *Tracker) Record(entry config.Entry, dir conversion.Direction, res conversion.Result, err error) {
	msg := ""
	switch {
	case err != nil:
		msg = err.Error()
	default:
		source := entry.Mapping.FolderPath
		if dir == conversion.ToXML {
			source = entry.Mapping.BinaryPath
		}
		binaryName := ""
		if entry.Mapping.BinaryPath != "" {
			if f, ferr := entry.Mapping.Binary(); ferr == nil {
				binaryName = f.Name()
			}
		}
		msg = Message(res.Outcome, binaryName, source)
	}
	t.set(entry.ID(), DestinationSide(dir), msg)
}

func (t *Tracker) set(id string, side Side, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.errs[id]
	e[side] = msg
	t.errs[id] = e
}

// LastError is the stored error message for a side, "" when there is none
func (t *Tracker) LastError(id string, side Side) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.errs[id][side]
}

// 🔍 Check polls both sides of entry
func (t *Tracker) Check(entry config.Entry) MappingStatus {
	id := entry.ID()
	return MappingStatus{
		Entry:  entry,
		Binary: Check(entry.Mapping.BinaryPath, t.LastError(id, BinarySide)),
		Folder: Check(entry.Mapping.FolderPath, t.LastError(id, FolderSide)),
	}
}
