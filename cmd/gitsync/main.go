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
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/gitsync/cmd/gitsync/commands"
	"github.com/walteh/gitsync/cmd/gitsync/opts"
	"gitlab.com/tozd/go/errors"
)

func main() {
	ctx := zerolog.New(os.Stderr).With().Timestamp().Logger().WithContext(context.Background())
	os.Exit(run(ctx, os.Args[1:]))
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string) int {
	root, rootOpts := newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *opts.ExitError
	if errors.As(err, &exit) {
		fmt.Fprintln(opts.Stderr, exit.Message)
		return exit.Code
	}

	user := rootOpts.UserLogger
	if user == nil {
		user = opts.NewUserLogger(ctx)
	}
	user.LogValidation(false, "Command failed", err)
	return 1
}

// newRootCmd builds the command tree
func newRootCmd() (*cobra.Command, *opts.RootOpts) {
	rootOpts := &opts.RootOpts{Prompter: opts.PtermPrompter{}}

	rootCmd := &cobra.Command{
		Use:   "gitsync",
		Short: "Keep binary record files in git as folders of text",
		Long: `gitsync exports binary record files into folders of diffable text files
and imports them back. Every conversion is staged, verified by a round trip,
backed up and swapped into place atomically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := setupLogging(cmd.Context(), rootOpts.Debug)
			cmd.SetContext(ctx)
			setupOutput(ctx, cmd, rootOpts)
		},
	}

	addRootFlags(rootCmd, rootOpts)

	rootCmd.AddCommand(
		commands.NewConvertCmd(rootOpts),
		commands.NewSyncCmd(rootOpts),
		commands.NewStatusCmd(rootOpts),
		commands.NewBackupsCmd(rootOpts),
		newVersionCmd(),
	)

	return rootCmd, rootOpts
}
