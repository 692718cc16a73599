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

// Package testutils holds fixtures shared by the conversion, operation and
// command tests.
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gitsync/pkg/codec/recfile"
)

// Context returns a context whose logger writes through t.Log
func Context(t testing.TB) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// 🧪 Plugin builds a plugin with one MISC record per value, ids counting from 1
func Plugin(author string, values ...string) *recfile.Plugin {
	p := &recfile.Plugin{Author: author}
	for i, v := range values {
		p.Records = append(p.Records, recfile.Record{
			Type:   "MISC",
			ID:     uint32(i + 1),
			Fields: []recfile.Field{{Name: "EDID", Value: v}},
		})
	}
	return p
}

// WriteBinary encodes p to path, creating parent directories
func WriteBinary(t testing.TB, path string, p *recfile.Plugin) {
	t.Helper()
	data, err := recfile.Marshal(p)
	require.NoError(t, err, "encoding fixture")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// ReadBinary decodes the binary record file at path
func ReadBinary(t testing.TB, path string) *recfile.Plugin {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	p, err := recfile.Unmarshal(data)
	require.NoError(t, err, "decoding %s", path)
	return p
}
