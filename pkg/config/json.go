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
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// JSONParser reads .json settings files. Unknown keys and anything after the
// top-level object are errors.
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

func (p *JSONParser) CanParse(filename string) bool {
	return filepath.Ext(strings.ToLower(strings.TrimSpace(filename))) == ".json"
}

func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Settings{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s Settings
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Errorf("parsing JSON settings: %w", err)
	}
	if dec.More() {
		return nil, errors.Errorf("parsing JSON settings: unexpected data after the settings object")
	}
	return &s, nil
}
