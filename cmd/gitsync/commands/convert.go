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

package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/walteh/gitsync/cmd/gitsync/opts"
	"github.com/walteh/gitsync/pkg/backup"
	"github.com/walteh/gitsync/pkg/codec/recfile"
	"github.com/walteh/gitsync/pkg/conversion"
	"github.com/walteh/gitsync/pkg/location"
	"github.com/walteh/gitsync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

const forcePrompt = "Export results did not match source. Force export?"

// NewConvertCmd creates the convert command
func NewConvertCmd(o *opts.RootOpts) *cobra.Command {
	var (
		force     bool
		noPrompt  bool
		noCheck   bool
		retention int
	)

	cmd := &cobra.Command{
		Use:   "convert <ToBinary|ToXML> <from> <to> [backup-root]",
		Short: "Convert one record file or folder",
		Long: `Convert exports a binary record file into a folder (ToXML) or imports a
folder back into a binary record file (ToBinary).

The result is verified by converting it back and comparing it with the source.
If they differ nothing is written unless the export is forced. When a backup
root is given the previous destination is kept there in a timestamped folder.

Prints nothing and exits 0 on success.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, err := conversion.ParseDirection(args[0])
			if err != nil {
				return opts.Fail("Unknown conversion type %q. Expected ToBinary or ToXML.", args[0])
			}
			backupRoot := ""
			if len(args) == 4 {
				backupRoot = args[3]
			}

			binaryArg, folderArg := args[1], args[2]
			if dir == conversion.ToBinary {
				binaryArg, folderArg = args[2], args[1]
			}
			binary, err := location.NewFile(binaryArg)
			if err != nil {
				return err
			}
			folder, err := location.NewDirectory(folderArg)
			if err != nil {
				return err
			}

			engine, err := recfile.NewEngine(conversion.Options{
				BackupRoot:           backupRoot,
				Retention:            retention,
				SkipCorrectnessCheck: noCheck,
			})
			if err != nil {
				return errors.Errorf("creating engine: %w", err)
			}

			res, err := engine.Convert(ctx, dir, binary, folder)
			if err != nil {
				return errors.Errorf("converting: %w", err)
			}

			if res.Outcome == conversion.CorruptionDetected {
				o.Logger(cmd).LogDifferences(ctx, res.Differences)

				ok, err := shouldForce(ctx, o, force, noPrompt)
				if err != nil {
					return errors.Errorf("asking to force export: %w", err)
				}
				if !ok {
					return opts.Fail("%s", status.Message(res.Outcome, binary.Name(), sourceOf(dir, binary, folder)))
				}
				res, err = engine.Convert(ctx, dir, binary, folder, conversion.WithoutCorrectnessCheck())
				if err != nil {
					return errors.Errorf("forcing conversion: %w", err)
				}
			}

			if res.Outcome != conversion.Success {
				return opts.Fail("%s", status.Message(res.Outcome, binary.Name(), sourceOf(dir, binary, folder)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "write even when verification finds differences")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "never prompt; answer no when verification finds differences")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "skip round-trip verification")
	cmd.Flags().IntVar(&retention, "retention", backup.DefaultRetention, "number of backups to keep")
	cmd.MarkFlagsMutuallyExclusive("force", "no-prompt")

	return cmd
}

func shouldForce(ctx context.Context, o *opts.RootOpts, force, noPrompt bool) (bool, error) {
	switch {
	case force:
		return true, nil
	case noPrompt || o.Prompter == nil:
		return false, nil
	}
	return o.Prompter.Confirm(ctx, forcePrompt)
}

func sourceOf(dir conversion.Direction, binary location.File, folder location.Directory) string {
	if dir == conversion.ToBinary {
		return folder.Path()
	}
	return binary.Path()
}
