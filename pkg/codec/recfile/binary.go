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
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/gitsync/pkg/location"
	"github.com/walteh/gitsync/pkg/modkey"
	"gitlab.com/tozd/go/errors"
)

var order = binary.LittleEndian

// 🔍 ReadBinary decodes a record file
func ReadBinary(ctx context.Context, _ modkey.ModKey, src location.File) (*Plugin, error) {
	data, err := os.ReadFile(src.Path())
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", src, err)
	}

	p, err := Unmarshal(data)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", src, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", src.Path()).Int("records", len(p.Records)).Msg("read record file")
	return p, nil
}

// 💾 WriteBinary encodes p into dst, replacing whatever is there
func WriteBinary(ctx context.Context, _ modkey.ModKey, p *Plugin, dst location.File) error {
	data, err := Marshal(p)
	if err != nil {
		return errors.Errorf("encoding %s: %w", dst, err)
	}
	if err := dst.Dir().Create(); err != nil {
		return err
	}
	if err := os.WriteFile(dst.Path(), data, 0644); err != nil {
		return errors.Errorf("writing %s: %w", dst, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", dst.Path()).Int("bytes", len(data)).Msg("wrote record file")
	return nil
}

// Marshal renders p in the binary form
func Marshal(p *Plugin) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	var flags uint16
	if p.Master {
		flags |= flagMaster
	}
	w := &writer{buf: &buf}
	w.u16(Version)
	w.u16(flags)
	w.str16(p.Author)
	w.u32(uint32(len(p.Records)))
	for _, r := range p.Records {
		buf.WriteString(r.Type)
		w.u32(r.ID)
		if len(r.Fields) > math.MaxUint16 {
			return nil, errors.Errorf("record %s/%08X has %d fields", r.Type, r.ID, len(r.Fields))
		}
		w.u16(uint16(len(r.Fields)))
		for _, f := range r.Fields {
			w.str16(f.Name)
			w.str32(f.Value)
		}
	}
	if w.err != nil {
		return nil, w.err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the binary form
func Unmarshal(data []byte) (*Plugin, error) {
	r := &reader{r: bytes.NewReader(data)}

	magic := r.bytes(len(Magic))
	if r.err == nil && string(magic) != Magic {
		return nil, errors.WithDetails(ErrMalformed, "reason", "bad magic", "magic", string(magic))
	}
	version := r.u16()
	if r.err == nil && version != Version {
		return nil, errors.WithDetails(ErrMalformed, "reason", "unsupported version", "version", version)
	}
	flags := r.u16()
	p := &Plugin{
		Master: flags&flagMaster != 0,
		Author: r.str16(),
	}
	count := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	// every record needs at least ten bytes
	if uint64(count)*10 > uint64(len(data)) {
		return nil, errors.WithDetails(ErrMalformed, "reason", "record count exceeds file size", "count", count)
	}

	p.Records = make([]Record, 0, count)
	for i := uint32(0); i < count && r.err == nil; i++ {
		rec := Record{
			Type: string(r.bytes(4)),
			ID:   r.u32(),
		}
		n := r.u16()
		for j := uint16(0); j < n && r.err == nil; j++ {
			rec.Fields = append(rec.Fields, Field{Name: r.str16(), Value: r.str32()})
		}
		p.Records = append(p.Records, rec)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.r.Len() != 0 {
		return nil, errors.WithDetails(ErrMalformed, "reason", "trailing bytes", "bytes", r.r.Len())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

type writer struct {
	buf *bytes.Buffer
	err error
}

func (w *writer) u16(v uint16) { _ = binary.Write(w.buf, order, v) }
func (w *writer) u32(v uint32) { _ = binary.Write(w.buf, order, v) }

func (w *writer) str16(s string) {
	if len(s) > math.MaxUint16 {
		w.err = errors.Errorf("string of %d bytes does not fit a short length", len(s))
		return
	}
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) str32(s string) {
	if uint64(len(s)) > math.MaxUint32 {
		w.err = errors.Errorf("string of %d bytes does not fit a long length", len(s))
		return
	}
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

// reader stops at the first error and keeps returning zero values
type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.WithDetails(ErrMalformed, "reason", "truncated", "offset", r.r.Size()-int64(r.r.Len()))
		}
		r.err = err
	}
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.r.Len() {
		r.fail(io.ErrUnexpectedEOF)
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.fail(err)
		return nil
	}
	return b
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return order.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return order.Uint32(b)
}

func (r *reader) str16() string { return string(r.bytes(int(r.u16()))) }

func (r *reader) str32() string {
	n := r.u32()
	if r.err != nil {
		return ""
	}
	if uint64(n) > uint64(r.r.Len()) {
		r.fail(io.ErrUnexpectedEOF)
		return ""
	}
	return string(r.bytes(int(n)))
}
