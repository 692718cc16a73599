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

package opts

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/gitsync/pkg/config"
	"github.com/walteh/gitsync/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool

	UserLogger *UserLogger
	Console    *log.Logger
	Prompter   Prompter
}

// 🖥️ Logger returns the console logger, creating one on cmd's output when
// the root command did not set it up
func (o *RootOpts) Logger(cmd *cobra.Command) *log.Logger {
	if o.Console == nil {
		o.Console = log.NewWithZerolog(cmd.OutOrStdout(), *zerolog.Ctx(cmd.Context()))
	}
	return o.Console
}

// User returns the pterm-backed user logger, creating it on first use
func (o *RootOpts) User(cmd *cobra.Command) *UserLogger {
	if o.UserLogger == nil {
		o.UserLogger = NewUserLogger(cmd.Context())
	}
	return o.UserLogger
}

// 🎯 LoadSettings reads the settings file named by --config
func (o *RootOpts) LoadSettings(ctx context.Context) (*config.Settings, error) {
	return config.Load(ctx, o.ConfigFile)
}

// ❓ Prompter asks the user a yes/no question
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// PtermPrompter asks on the terminal, defaulting to no
type PtermPrompter struct{}

func (PtermPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(question)
}

// 🚪 ExitError ends the program with Code after printing Message to stderr
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d: %s", e.Code, e.Message)
}

// Fail builds an ExitError with code 1
func Fail(format string, args ...any) *ExitError {
	return &ExitError{Code: 1, Message: fmt.Sprintf(format, args...)}
}

// Stderr is where ExitError messages go
var Stderr io.Writer = os.Stderr
