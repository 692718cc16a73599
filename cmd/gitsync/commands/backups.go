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
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/gitsync/cmd/gitsync/opts"
	"github.com/walteh/gitsync/pkg/backup"
	"gitlab.com/tozd/go/errors"
)

// NewBackupsCmd creates the backups command and its subcommands
func NewBackupsCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Inspect and prune backup snapshots",
	}

	cmd.AddCommand(newBackupsListCmd(o), newBackupsPruneCmd(o))
	return cmd
}

func newBackupsListCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list <backup-root>",
		Short: "List snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, err := backup.List(args[0])
			if err != nil {
				return errors.Errorf("listing snapshots: %w", err)
			}
			if len(snaps) == 0 {
				o.Logger(cmd).Infof("No snapshots in %s", args[0])
				return nil
			}
			for _, s := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", color.CyanString("%-24s", s.Name), s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newBackupsPruneCmd(o *opts.RootOpts) *cobra.Command {
	var retention int

	cmd := &cobra.Command{
		Use:   "prune <backup-root>",
		Short: "Delete all but the newest snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if retention < 1 {
				return opts.Fail("Retention must be at least 1, got %d.", retention)
			}
			removed, err := backup.Prune(cmd.Context(), args[0], retention)
			for _, s := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.RedString("✗"), filepath.Base(s.Path))
			}
			if err != nil {
				return errors.Errorf("pruning snapshots: %w", err)
			}
			o.Logger(cmd).Successf("Removed %d snapshots", len(removed))
			return nil
		},
	}

	cmd.Flags().IntVar(&retention, "retention", backup.DefaultRetention, "number of snapshots to keep")
	return cmd
}
