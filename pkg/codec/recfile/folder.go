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
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/gitsync/pkg/location"
	"github.com/walteh/gitsync/pkg/modkey"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const (
	ManifestName = "manifest.yaml"
	RecordsDir   = "records"
)

// recordRef is a record's path below RecordsDir, TYPE/ID
type recordRef struct {
	Type string
	ID   uint32
}

func (r recordRef) String() string {
	return fmt.Sprintf("%s/%08X", r.Type, r.ID)
}

func parseRef(s string) (recordRef, error) {
	typ, id, ok := strings.Cut(s, "/")
	if !ok || !typePattern.MatchString(typ) {
		return recordRef{}, errors.WithDetails(ErrMalformed, "reason", "bad record reference", "ref", s)
	}
	n, err := strconv.ParseUint(id, 16, 32)
	if err != nil || len(id) != 8 {
		return recordRef{}, errors.WithDetails(ErrMalformed, "reason", "bad record id", "ref", s)
	}
	return recordRef{Type: typ, ID: uint32(n)}, nil
}

type manifest struct {
	ModKey  string   `yaml:"mod_key"`
	Master  bool     `yaml:"master"`
	Author  string   `yaml:"author,omitempty"`
	Records []string `yaml:"records"`
}

type recordDoc struct {
	Type   string  `yaml:"type"`
	ID     string  `yaml:"id"`
	Fields []Field `yaml:"fields,omitempty"`
}

// 📂 ReadFolder decodes the folder form. Only the records the manifest
// names are read; any other file in the folder is ignored.
func ReadFolder(ctx context.Context, key modkey.ModKey, src location.Directory) (*Plugin, error) {
	var m manifest
	if err := readYAML(src.Join(ManifestName).Path(), &m); err != nil {
		return nil, err
	}
	if m.ModKey != "" && !strings.EqualFold(m.ModKey, key.FileName()) {
		zerolog.Ctx(ctx).Debug().Str("manifest", m.ModKey).Str("key", key.String()).Msg("manifest names a different mod key")
	}

	p := &Plugin{Master: m.Master, Author: m.Author, Records: make([]Record, 0, len(m.Records))}
	for _, s := range m.Records {
		ref, err := parseRef(s)
		if err != nil {
			return nil, err
		}
		var doc recordDoc
		if err := readYAML(src.Join(RecordsDir, ref.Type, fmt.Sprintf("%08X.yaml", ref.ID)).Path(), &doc); err != nil {
			return nil, err
		}
		got, err := parseRef(doc.Type + "/" + doc.ID)
		if err != nil {
			return nil, errors.Errorf("record %s: %w", ref, err)
		}
		if got != ref {
			return nil, errors.WithDetails(ErrMalformed, "reason", "record file does not match its path", "path", ref.String(), "content", got.String())
		}
		p.Records = append(p.Records, Record{Type: ref.Type, ID: ref.ID, Fields: doc.Fields})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("path", src.Path()).Int("records", len(p.Records)).Msg("read record folder")
	return p, nil
}

// 💾 WriteFolder writes the folder form of p into dst. The records directory
// belongs to the codec and is rewritten from scratch; other files in dst are
// left alone.
func WriteFolder(ctx context.Context, key modkey.ModKey, p *Plugin, dst location.Directory) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m := manifest{
		ModKey:  key.FileName(),
		Master:  p.Master,
		Author:  p.Author,
		Records: make([]string, 0, len(p.Records)),
	}
	if err := dst.Sub(RecordsDir).Delete(); err != nil {
		return err
	}
	for _, r := range p.Records {
		ref := recordRef{Type: r.Type, ID: r.ID}
		m.Records = append(m.Records, ref.String())

		dir := dst.Sub(RecordsDir, r.Type)
		if err := dir.Create(); err != nil {
			return err
		}
		doc := recordDoc{Type: r.Type, ID: fmt.Sprintf("%08X", r.ID), Fields: r.Fields}
		if err := writeYAML(dir.Join(fmt.Sprintf("%08X.yaml", r.ID)).Path(), doc); err != nil {
			return err
		}
	}
	if err := dst.Create(); err != nil {
		return err
	}
	if err := writeYAML(dst.Join(ManifestName).Path(), m); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("path", dst.Path()).Int("records", len(p.Records)).Msg("wrote record folder")
	return nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Errorf("reading %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return errors.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func writeYAML(path string, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Errorf("encoding %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return errors.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Errorf("writing %s: %w", path, err)
	}
	return nil
}
