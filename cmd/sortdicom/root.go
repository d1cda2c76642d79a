package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/sortdicom"
	"github.com/aretw0/sortdicom/pkg/core"
)

// errIncomplete marks a run that finished but left records unsorted.
var errIncomplete = errors.New("some DICOM files were not sorted")

// newRootCmd builds the sortdicom command tree.
func newRootCmd() *cobra.Command {
	var verbose bool
	s := defaultSettings()

	rootCmd := &cobra.Command{
		Use:   "sortdicom <data_path>",
		Short: "Sorts DICOMs into directories based on their series description",
		Long: `sortdicom reads every DICOM file below data_path, groups them by their
Series Description (or one "_"-separated token of it with --split) and writes
each group to its own directory under --out. Source files are never modified.

A data_path named like a subcommand must be written as a path, for example
"sortdicom ./version".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}

			opts := &slog.HandlerOptions{
				Level: level,
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
			slog.SetDefault(logger)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s.splitSet = cmd.Flags().Changed("split")
			resolved, err := s.resolve(cmd)
			if err != nil {
				return err
			}

			res, err := runSort(cmd.Context(), args[0], resolved, slog.Default())
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), res, resolved.jsonOutput); err != nil {
				return err
			}
			if !res.OK() {
				return errIncomplete
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	addSortFlags(rootCmd, &s)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newWatchCmd(&s))
	return rootCmd
}

// addSortFlags registers the flags shared by the sort and watch commands.
func addSortFlags(cmd *cobra.Command, s *settings) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&s.out, "out", "o", s.out, "Path to store the grouped DICOM files")
	flags.IntVarP(&s.split, "split", "s", 0, `Group by the N-th "_"-separated token of the series description (negative counts from the end)`)
	flags.StringVar(&s.naming, "naming", s.naming, "File naming policy: positional or descriptive")
	flags.BoolVar(&s.flat, "flat", false, "Only read files directly inside data_path")
	flags.StringArrayVar(&s.include, "include", nil, "Only read files matching this glob (repeatable)")
	flags.StringArrayVar(&s.exclude, "exclude", nil, "Skip files matching this glob (repeatable)")
	flags.StringVarP(&s.configPath, "config", "c", "", "YAML config file providing flag defaults (default ./"+DefaultConfigFile+" if present)")
	flags.BoolVar(&s.jsonOutput, "json", false, "Print the result in JSON format")
}

// options translates resolved settings into service options.
func (s settings) options(logger *slog.Logger) ([]sortdicom.Option, error) {
	naming, err := core.ParseNaming(s.naming)
	if err != nil {
		return nil, err
	}

	opts := []sortdicom.Option{
		sortdicom.WithLogger(logger),
		sortdicom.WithNaming(naming),
		sortdicom.WithRecursive(!s.flat),
		sortdicom.WithInclude(s.include...),
		sortdicom.WithExclude(s.exclude...),
	}
	if s.splitSet {
		opts = append(opts, sortdicom.WithSplitIndex(s.split))
	}
	return opts, nil
}

func runSort(ctx context.Context, src string, s settings, logger *slog.Logger) (core.Result, error) {
	opts, err := s.options(logger)
	if err != nil {
		return core.Result{}, err
	}
	return sortdicom.Sort(ctx, src, s.out, opts...)
}

func printResult(w io.Writer, res core.Result, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(res)
	}

	fmt.Fprintf(w, "Sorted %d of %d DICOM files into %d groups under %s\n", res.Written, res.Collected, res.Groups, res.Output)
	if res.DecodeFailed > 0 {
		fmt.Fprintf(w, "Ignored %d non-DICOM files\n", res.DecodeFailed)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d files without a group key\n", res.Skipped)
	}
	if res.Failed > 0 {
		fmt.Fprintf(w, "Failed to write %d files\n", res.Failed)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  %v\n", f)
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fatal("sortdicom", err)
	}
}
