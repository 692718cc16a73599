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

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gitsync/cmd/gitsync/opts"
	"github.com/walteh/gitsync/pkg/testutils"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name string
		info *VersionInfo
		want string
	}{
		{
			name: "clean",
			info: &VersionInfo{Version: "v1.2.0", Revision: "abc123", Time: "2025-01-01T00:00:00Z", GoVersion: "go1.23.5", Platform: "linux/amd64"},
			want: "🚀 gitsync version info:\nVersion:   v1.2.0\nRevision:  abc123\nBuilt:     2025-01-01T00:00:00Z\nGo:        go1.23.5\nPlatform:  linux/amd64\n",
		},
		{
			name: "modified",
			info: &VersionInfo{Version: "dev", Revision: "abc123", Modified: true},
			want: "🚀 gitsync version info:\nVersion:   dev\nRevision:  abc123 (modified)\nBuilt:     \nGo:        \nPlatform:  \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatVersion(tt.info))
		})
	}
}

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestRunExitCodes(t *testing.T) {
	var stderr bytes.Buffer
	prev := opts.Stderr
	opts.Stderr = &stderr
	t.Cleanup(func() { opts.Stderr = prev })

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{name: "version", args: []string{"version"}, wantCode: 0},
		{
			name:       "exit_error_message",
			args:       []string{"convert", "Sideways", "a.esp", "b"},
			wantCode:   1,
			wantStderr: "Unknown conversion type \"Sideways\". Expected ToBinary or ToXML.\n",
		},
		{name: "unknown_command", args: []string{"explode"}, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stderr.Reset()
			assert.Equal(t, tt.wantCode, run(context.Background(), tt.args))
			assert.Equal(t, tt.wantStderr, stderr.String())
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	root, rootOpts := newRootCmd()
	assert.NotNil(t, rootOpts.Prompter)

	for _, name := range []string{"convert", "sync", "status", "backups", "version"} {
		cmd, _, err := root.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}

func TestRunConvertSuccessIsSilent(t *testing.T) {
	var stderr bytes.Buffer
	prev := opts.Stderr
	opts.Stderr = &stderr
	t.Cleanup(func() { opts.Stderr = prev })

	dir := t.TempDir()
	binary := filepath.Join(dir, "data", "Mod.esp")
	testutils.WriteBinary(t, binary, testutils.Plugin("main", "a", "b"))

	var stdout bytes.Buffer
	root, _ := newRootCmd()
	root.SetOut(&stdout)
	root.SetArgs([]string{"convert", "ToXML", binary, filepath.Join(dir, "repo", "mod"), filepath.Join(dir, "backups")})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String(), "a successful convert writes nothing to stderr")

	assert.Equal(t, 0, run(context.Background(), []string{"convert", "ToXML", binary, filepath.Join(dir, "repo", "mod")}))
	assert.Empty(t, stderr.String())
}
