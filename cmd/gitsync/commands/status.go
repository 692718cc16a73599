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

	"github.com/spf13/cobra"
	"github.com/walteh/gitsync/cmd/gitsync/opts"
	"github.com/walteh/gitsync/pkg/config"
	"github.com/walteh/gitsync/pkg/conversion"
	"github.com/walteh/gitsync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// NewStatusCmd creates the status command
func NewStatusCmd(o *opts.RootOpts) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of both sides of every mapping",
		Long: `Status checks each mapping in the settings file. A side is an error when
its binary name is not a valid mod key, a warning when its path does not
exist, and ok otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := o.LoadSettings(ctx)
			if err != nil {
				return errors.Errorf("loading settings: %w", err)
			}
			entries, err := settings.Select(group, nil)
			if err != nil {
				return err
			}

			console := o.Logger(cmd)
			console.Header(fmt.Sprintf("status of %d mappings in %s", len(entries), settings.Location()))

			tracker := status.NewTracker()
			problems, errs := 0, 0
			for _, e := range entries {
				st := check(tracker, e)
				if st.Binary.Type != status.None || st.Folder.Type != status.None {
					problems++
				}
				if st.Binary.Type == status.Error || st.Folder.Type == status.Error {
					errs++
				}
				fmt.Fprintln(cmd.OutOrStdout(), status.FormatMapping(st))
			}

			switch {
			case errs > 0:
				console.Errorf("%d of %d mappings need attention, %d cannot convert", problems, len(entries), errs)
			case problems > 0:
				console.Warningf("%d of %d mappings need attention", problems, len(entries))
			default:
				console.Successf("%d mappings ok", len(entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "only mappings of this grouping")

	return cmd
}

// check polls a mapping, flagging a binary name that can never convert
func check(tracker *status.Tracker, e config.Entry) status.MappingStatus {
	st := tracker.Check(e)
	if e.Mapping.BinaryPath == "" || st.Binary.Type == status.Error {
		return st
	}
	if _, err := e.Mapping.Key(); err != nil {
		name := filepath.Base(e.Mapping.BinaryPath)
		st.Binary = status.Pair{Type: status.Error, Message: status.Message(conversion.IdentifierInvalid, name, "")}
	}
	return st
}
