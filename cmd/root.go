package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-to-json/config"
	"github.com/dhcgn/mbox-to-json/filter"
	"github.com/dhcgn/mbox-to-json/mbox"
	"github.com/dhcgn/mbox-to-json/stats"
)

// Execute runs the mbox-to-json command line.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. The root command converts a
// mailbox to JSON.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mbox-to-json [mbox file]",
		Short:         "Convert the messages of an mbox archive to JSON records",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd, args, pathInput(cmd, args))
			if err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			logger.Debug("starting mbox-to-json", "mbox", mbox.NormalizePath(cfg.MboxPath), "output", cfg.OutputPath)
			return runConvert(cfg, logger, cmd.OutOrStdout())
		},
	}

	config.RegisterFlags(rootCmd)
	config.RegisterOutputFlags(rootCmd)

	rootCmd.AddCommand(newStatsCommand(), newCountCommand())
	return rootCmd
}

func runConvert(cfg config.Config, logger *slog.Logger, stdout io.Writer) error {
	collector := stats.NewCollector()
	opts, err := parseOptions(cfg, logger, collector)
	if err != nil {
		return err
	}

	started := time.Now()
	messages, err := mbox.Parse(cfg.MboxPath, opts)
	if err != nil {
		return fmt.Errorf("mbox.Parse: %w", err)
	}

	if err := writeOutput(cfg, stdout, messages); err != nil {
		return err
	}

	summary := collector.Snapshot()
	logger.Info("conversion completed", append(summary.LogAttrs(), "duration", time.Since(started))...)
	return nil
}

func parseOptions(cfg config.Config, logger *slog.Logger, collector *stats.Collector) (mbox.Options, error) {
	opts := mbox.Options{
		DetectCharset: cfg.DetectCharset,
		Logger:        logger,
		Quiet:         cfg.Quiet,
		Stats:         collector,
	}

	if filterOpts := cfg.FilterOptions(); filterOpts.Active() {
		f, err := filter.New(filterOpts)
		if err != nil {
			return mbox.Options{}, fmt.Errorf("create filter: %w", err)
		}
		opts.Filter = f
	}

	return opts, nil
}

// pathInput returns the reader the mailbox path is read from when neither an
// argument nor --mbox names it. An interactive terminal is never read.
func pathInput(cmd *cobra.Command, args []string) io.Reader {
	if len(args) > 0 {
		return nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil
	}
	return in
}
