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

	"github.com/spf13/cobra"
	"github.com/walteh/gitsync/cmd/gitsync/opts"
	"github.com/walteh/gitsync/pkg/codec/recfile"
	"github.com/walteh/gitsync/pkg/conversion"
	"github.com/walteh/gitsync/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewSyncCmd creates the sync command
func NewSyncCmd(o *opts.RootOpts) *cobra.Command {
	var (
		group    string
		patterns []string
		noCheck  bool
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "sync <to-git|to-binary>",
		Short: "Convert every mapping in the settings file",
		Long: `Sync converts the mappings listed in the settings file, all in the same
direction. to-git exports each binary into its folder, to-binary imports each
folder back into its binary.

Every mapping is reported on its own line. Mappings run in parallel, except
that two mappings writing to the same destination never overlap. The backup
of each mapping goes to <backup_root>/<grouping>/<mapping nickname>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, err := conversion.ParseDirection(args[0])
			if err != nil {
				return opts.Fail("Unknown direction %q. Expected to-git or to-binary.", args[0])
			}

			settings, err := o.LoadSettings(ctx)
			if err != nil {
				return errors.Errorf("loading settings: %w", err)
			}
			o.User(cmd).LogStateChange(fmt.Sprintf("Loaded %d groupings from %s", len(settings.Groupings), settings.Location()))
			if workers > 0 {
				settings.Workers = workers
			}

			entries, err := settings.Select(group, patterns)
			if err != nil {
				return err
			}
			console := o.Logger(cmd)
			if len(entries) == 0 {
				console.Warning("No mappings selected")
				return nil
			}

			engine, err := recfile.NewEngine(conversion.Options{})
			if err != nil {
				return errors.Errorf("creating engine: %w", err)
			}

			runner, err := operation.New(operation.Options{
				Converter: engine,
				Settings:  settings,
				Notify:    func(r operation.Report) { console.LogReport(ctx, r) },
			})
			if err != nil {
				return errors.Errorf("creating runner: %w", err)
			}

			var extra []conversion.CallOption
			if noCheck {
				extra = append(extra, conversion.WithoutCorrectnessCheck())
			}

			console.StartBatch(ctx, dir, len(entries))
			reports := runner.Run(ctx, operation.JobsFor(entries, dir), extra...)
			summary := operation.Summarize(reports)
			console.EndBatch(ctx, summary)

			if summary.Failed > 0 || summary.Skipped > 0 {
				return opts.Fail("%d of %d mappings did not convert", summary.Failed+summary.Skipped, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "only mappings of this grouping")
	cmd.Flags().StringSliceVarP(&patterns, "mapping", "m", nil, "only mappings whose nickname or grouping/nickname matches this glob (repeatable)")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "skip round-trip verification")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "mappings converted in parallel (default from settings)")

	return cmd
}
