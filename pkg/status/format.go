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
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	indent    = 4  // spaces before each mapping line
	nameWidth = 30 // width of the mapping column
	sideWidth = 8  // width of a side label
)

// 🎯 Symbol is the coloured marker for a status type
func Symbol(t Type) string {
	switch t {
	case Error:
		return color.RedString("✗")
	case Warning:
		return color.YellowString("!")
	default:
		return color.GreenString("✓")
	}
}

// FormatPair formats one side as "<symbol> <label> <message>"
func FormatPair(label string, p Pair) string {
	msg := p.Message
	if p.Type == None {
		msg = color.HiBlackString("ok")
	}
	return fmt.Sprintf("%s %-*s %s", Symbol(p.Type), sideWidth, label, msg)
}

// 📋 FormatMapping formats both sides of a mapping on two indented lines
func FormatMapping(s MappingStatus) string {
	pad := strings.Repeat(" ", indent)
	name := fmt.Sprintf("%-*s", nameWidth, s.Entry.ID())
	return fmt.Sprintf("%s%s %s\n%s%s %s",
		pad, name, FormatPair(BinarySide.String(), s.Binary),
		pad, strings.Repeat(" ", nameWidth), FormatPair(FolderSide.String(), s.Folder),
	)
}
