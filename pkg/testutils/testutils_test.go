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

package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gitsync/pkg/codec/recfile"
)

func TestPlugin(t *testing.T) {
	p := Plugin("me", "a", "b")
	require.NoError(t, p.Validate())
	assert.Equal(t, "me", p.Author)

	rec, ok := p.Find("MISC", 2)
	require.True(t, ok)
	assert.Equal(t, []recfile.Field{{Name: "EDID", Value: "b"}}, rec.Fields)
}

func TestBinaryFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "Fixture.esp")
	want := Plugin("me", "x", "y", "z")

	WriteBinary(t, path, want)
	assert.Equal(t, want, ReadBinary(t, path))
}
