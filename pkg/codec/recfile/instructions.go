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

package recfile

import (
	"github.com/walteh/gitsync/pkg/conversion"
)

// 🔌 Instructions returns the codec in the shape the conversion engine takes
func Instructions() conversion.Instructions[*Plugin] {
	return conversion.Funcs[*Plugin]{
		CreateBinary: ReadBinary,
		CreateFolder: ReadFolder,
		WriteBinary:  WriteBinary,
		WriteFolder:  WriteFolder,
	}
}

// 🏭 NewEngine creates a conversion engine for record files
func NewEngine(opts conversion.Options) (*conversion.Engine[*Plugin], error) {
	return conversion.New(Instructions(), opts)
}
