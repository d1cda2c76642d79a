package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/sortdicom/pkg/adapters/fs"
)

// newWatchCmd re-runs the sort every time the source tree settles.
func newWatchCmd(s *settings) *cobra.Command {
	var quiet time.Duration

	watchCmd := &cobra.Command{
		Use:   "watch <data_path>",
		Short: "Sort data_path, then sort again whenever new files arrive",
		Long: `watch performs an initial sort and then watches data_path. Once files stop
changing for --quiet, the whole tree is sorted again. Runs never overlap.
Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s.splitSet = cmd.Flags().Changed("split")
			resolved, err := s.resolve(cmd)
			if err != nil {
				return err
			}

			src, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			out, err := filepath.Abs(resolved.out)
			if err != nil {
				return err
			}
			resolved.out = out
			logger := slog.Default()

			sortOnce := func(ctx context.Context) error {
				res, err := runSort(ctx, src, resolved, logger)
				if err != nil {
					return err
				}
				if err := printResult(cmd.OutOrStdout(), res, resolved.jsonOutput); err != nil {
					return err
				}
				if !res.OK() {
					return fmt.Errorf("%w: %d skipped, %d failed", errIncomplete, res.Skipped, res.Failed)
				}
				return nil
			}

			// A broken source or output path should stop the command before it starts waiting.
			if err := sortOnce(cmd.Context()); err != nil && !errors.Is(err, errIncomplete) {
				return err
			}

			watcher := fs.NewWatcher(fs.WatchConfig{
				Root:     src,
				SkipDirs: []string{out},
				Quiet:    quiet,
				Logger:   logger,
			})
			logger.Info("watching for new files", "root", src, "quiet", quiet)
			return watcher.Watch(cmd.Context(), sortOnce)
		},
	}

	watchCmd.Flags().DurationVar(&quiet, "quiet", fs.DefaultQuietPeriod, "How long the source must stay unchanged before sorting")
	return watchCmd
}
