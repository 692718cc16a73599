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

package conversion

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/walteh/gitsync/pkg/location"
	"github.com/walteh/gitsync/pkg/modkey"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Instructions is the codec a conversion family supplies. The engine
// never looks inside M; it only hands it from a decode to an encode.
type Instructions[M any] interface {
	// DecodeBinary reads a record file
	DecodeBinary(ctx context.Context, key modkey.ModKey, src location.File) (M, error)
	// DecodeFolder reads a record folder
	DecodeFolder(ctx context.Context, key modkey.ModKey, src location.Directory) (M, error)
	// EncodeBinary writes a record file, creating or truncating dst
	EncodeBinary(ctx context.Context, key modkey.ModKey, record M, dst location.File) error
	// EncodeFolder writes a record folder into dst, which may already hold files
	EncodeFolder(ctx context.Context, key modkey.ModKey, record M, dst location.Directory) error
}

// 🧰 Funcs bundles four plain functions into an Instructions
type Funcs[M any] struct {
	CreateBinary func(ctx context.Context, key modkey.ModKey, src location.File) (M, error)
	CreateFolder func(ctx context.Context, key modkey.ModKey, src location.Directory) (M, error)
	WriteBinary  func(ctx context.Context, key modkey.ModKey, record M, dst location.File) error
	WriteFolder  func(ctx context.Context, key modkey.ModKey, record M, dst location.Directory) error
}

var _ Instructions[struct{}] = Funcs[struct{}]{}

var errNotSupported = errors.Base("operation not supported by instructions")

func (f Funcs[M]) DecodeBinary(ctx context.Context, key modkey.ModKey, src location.File) (M, error) {
	if f.CreateBinary == nil {
		var zero M
		return zero, errNotSupported
	}
	return f.CreateBinary(ctx, key, src)
}

func (f Funcs[M]) DecodeFolder(ctx context.Context, key modkey.ModKey, src location.Directory) (M, error) {
	if f.CreateFolder == nil {
		var zero M
		return zero, errNotSupported
	}
	return f.CreateFolder(ctx, key, src)
}

func (f Funcs[M]) EncodeBinary(ctx context.Context, key modkey.ModKey, record M, dst location.File) error {
	if f.WriteBinary == nil {
		return errNotSupported
	}
	return f.WriteBinary(ctx, key, record, dst)
}

func (f Funcs[M]) EncodeFolder(ctx context.Context, key modkey.ModKey, record M, dst location.Directory) error {
	if f.WriteFolder == nil {
		return errNotSupported
	}
	return f.WriteFolder(ctx, key, record, dst)
}

// guard runs a codec call, turning a returned error or a panic into a CodecError
func guard(op CodecOp, verifying bool, path string, call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CodecError{
				Op:        op,
				Verifying: verifying,
				Path:      path,
				Err:       errors.Errorf("panic: %v\n%s", r, debug.Stack()),
			}
		}
	}()
	if err := call(); err != nil {
		return &CodecError{Op: op, Verifying: verifying, Path: path, Err: err}
	}
	return nil
}

// CodecOp names one of the four codec capabilities
type CodecOp string

const (
	OpDecodeBinary CodecOp = "decode binary"
	OpDecodeFolder CodecOp = "decode folder"
	OpEncodeBinary CodecOp = "encode binary"
	OpEncodeFolder CodecOp = "encode folder"
)

// ❌ CodecError is a failure raised by the instructions. It is never one of
// the conversion outcomes, and the destination is untouched when it occurs.
type CodecError struct {
	Op        CodecOp
	Verifying bool   // raised during the round-trip verification
	Path      string // location the codec was reading or writing
	Err       error
}

func (e *CodecError) Error() string {
	phase := ""
	if e.Verifying {
		phase = " while verifying"
	}
	return fmt.Sprintf("codec failed to %s %s%s: %v", e.Op, e.Path, phase, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
