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

package modkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     ModKey
		wantErr  bool
	}{
		{name: "plugin", fileName: "MyPlugin.esp", want: ModKey{Name: "MyPlugin", Type: Plugin}},
		{name: "master", fileName: "Oblivion.esm", want: ModKey{Name: "Oblivion", Type: Master}},
		{name: "light", fileName: "Tiny.esl", want: ModKey{Name: "Tiny", Type: Light}},
		{name: "uppercase_extension", fileName: "Oblivion.ESM", want: ModKey{Name: "Oblivion", Type: Master}},
		{name: "full_path", fileName: "/games/data/Knights.esp", want: ModKey{Name: "Knights", Type: Plugin}},
		{name: "dotted_name", fileName: "Unofficial.Patch.esp", want: ModKey{Name: "Unofficial.Patch", Type: Plugin}},
		{name: "wrong_extension", fileName: "notes.txt", wantErr: true},
		{name: "no_extension", fileName: "Oblivion", wantErr: true},
		{name: "extension_only", fileName: ".esp", wantErr: true},
		{name: "empty", fileName: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.fileName)
			if tt.wantErr {
				require.Error(t, err, "parsing should fail")
				assert.True(t, errors.Is(err, ErrInvalid), "error should be ErrInvalid")
				assert.True(t, got.IsZero(), "a failed parse returns the zero key")
				return
			}
			require.NoError(t, err, "parsing should succeed")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Oblivion.esm", ModKey{Name: "Oblivion", Type: Master}.FileName())
	assert.Equal(t, "Mod.esp", ModKey{Name: "Mod"}.String())
	assert.True(t, ModKey{}.IsZero())
}
