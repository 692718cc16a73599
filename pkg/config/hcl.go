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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

type hclMapping struct {
	Nickname   string `hcl:"nickname,optional"`
	BinaryPath string `hcl:"binary_path,optional"`
	FolderPath string `hcl:"folder_path,optional"`
}

type hclGrouping struct {
	Nickname string       `hcl:"nickname,label"`
	Mappings []hclMapping `hcl:"mapping,block"`
}

type hclSettings struct {
	BackupRoot       string        `hcl:"backup_root,optional"`
	Retention        int           `hcl:"retention,optional"`
	Workers          int           `hcl:"workers,optional"`
	CheckCorrectness *bool         `hcl:"check_correctness,optional"`
	Groupings        []hclGrouping `hcl:"grouping,block"`
}

// 📝 Parse parses the settings from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Settings, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "settings.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var raw hclSettings
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	s := &Settings{
		BackupRoot:       raw.BackupRoot,
		Retention:        raw.Retention,
		Workers:          raw.Workers,
		CheckCorrectness: raw.CheckCorrectness,
	}
	for _, g := range raw.Groupings {
		grouping := Grouping{Nickname: g.Nickname}
		for _, m := range g.Mappings {
			grouping.Mappings = append(grouping.Mappings, Mapping(m))
		}
		s.Groupings = append(s.Groupings, grouping)
	}

	return s, nil
}

// evalContext exposes env (the process environment) and home
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":  cty.ObjectVal(env),
			"home": cty.StringVal(home),
		},
	}
}
