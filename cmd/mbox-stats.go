package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-to-json/config"
	"github.com/dhcgn/mbox-to-json/filter"
	"github.com/dhcgn/mbox-to-json/mbox"
	"github.com/dhcgn/mbox-to-json/model"
	"github.com/dhcgn/mbox-to-json/stats"
)

var trackedFields = []string{"From", "To", "Cc", "Subject"}

func newStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "mbox-stats [mbox file]",
		Short: "Analyse the mbox file and show statistics",
		Args:  cobra.MaximumNArgs(1),
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

			collector := stats.NewCollector()
			opts, err := parseOptions(cfg, logger, collector)
			if err != nil {
				return err
			}

			messages, err := mbox.Parse(cfg.MboxPath, opts)
			if err != nil {
				return fmt.Errorf("mbox.Parse: %w", err)
			}

			out := cmd.OutOrStdout()
			counter := countFields(messages)
			printStats(out, collector.Snapshot(), opts.Filter, counter, cfg.TopN)
			printBodyStats(out, messages)

			if err := saveCSVReports(counter, trackedFields, cfg.ReportDir, 1000); err != nil {
				return fmt.Errorf("error saving CSV reports: %w", err)
			}

			fmt.Fprintf(out, "\nReports saved to directory: %s\n", cfg.ReportDir)
			return nil
		},
	}

	config.RegisterReportFlags(statsCmd)
	return statsCmd
}

// countFields counts values per tracked field. Address lists count each
// address once per message it appears in.
func countFields(messages []model.Message) map[string]map[string]int {
	counter := make(map[string]map[string]int, len(trackedFields))
	for _, field := range trackedFields {
		counter[field] = make(map[string]int)
	}

	for _, msg := range messages {
		if msg.From != "" {
			counter["From"][msg.From]++
		}
		if msg.Subject != "" {
			counter["Subject"][msg.Subject]++
		}
		for _, addr := range msg.To {
			counter["To"][addr]++
		}
		for _, addr := range msg.Cc {
			counter["Cc"][addr]++
		}
	}
	return counter
}

func printStats(w io.Writer, summary stats.Summary, f *filter.Filter, counter map[string]map[string]int, topN int) {
	var filterPercent float64
	if summary.Scanned > 0 {
		filterPercent = float64(summary.Filtered) / float64(summary.Scanned) * 100
	}
	fmt.Fprintf(w, "Processed %d messages (skipped %d by filters, %.2f%%)...\n", summary.Converted, summary.Filtered, filterPercent)
	fmt.Fprintf(w, "Decode fallbacks: %d, dropped addresses: %d, header errors: %d\n\n", summary.DecodeFallbacks, summary.DroppedAddresses, summary.HeaderErrors)

	if f != nil {
		filterStats := f.GetStats()
		sections := []struct {
			title    string
			patterns []string
			hits     map[string]int
		}{
			{"Include Header Filters", filterStats.IncludeHeaderPatterns, filterStats.IncludeHeaderHits},
			{"Include Body Filters", filterStats.IncludeBodyPatterns, filterStats.IncludeBodyHits},
			{"Exclude Header Filters", filterStats.ExcludeHeaderPatterns, filterStats.ExcludeHeaderHits},
			{"Exclude Body Filters", filterStats.ExcludeBodyPatterns, filterStats.ExcludeBodyHits},
		}
		for _, s := range sections {
			if len(s.patterns) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s:\n", s.title)
			printFilterHits(w, s.patterns, s.hits)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "---")
		fmt.Fprintln(w)
	}

	for _, field := range trackedFields {
		fmt.Fprintf(w, "Top %d %s:\n", topN, field)
		stats.PrettyPrintTop(w, counter[field], topN)
		fmt.Fprintln(w)
	}
}

// printBodyStats reports how many messages carry a plain-text body.
func printBodyStats(w io.Writer, messages []model.Message) {
	withBody, size := 0, 0
	for _, msg := range messages {
		if msg.HasBody() {
			withBody++
			size += len(msg.BodyText())
		}
	}
	fmt.Fprintf(w, "Plain-text bodies: %d of %d messages (%d bytes)\n", withBody, len(messages), size)
}

func saveCSVReports(counter map[string]map[string]int, fields []string, dir string, limit int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, field := range fields {
		filename := fmt.Sprintf("report_%s.csv", normalizeFieldName(field))
		if err := writeCSVReport(filepath.Join(dir, filename), stats.Top(counter[field], limit)); err != nil {
			return err
		}
	}

	return nil
}

func writeCSVReport(path string, rows []stats.Count) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Value", "Count"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Key, strconv.Itoa(row.Value)}); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func normalizeFieldName(field string) string {
	name := strings.ToLower(field)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

func printFilterHits(w io.Writer, patterns []string, hits map[string]int) {
	type pair struct {
		Pattern string
		Count   int
	}
	pairs := make([]pair, 0, len(patterns))
	for _, pattern := range patterns {
		pairs = append(pairs, pair{pattern, hits[pattern]})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Pattern < pairs[j].Pattern
	})

	for _, p := range pairs {
		if p.Count > 0 {
			fmt.Fprintf(w, "  ✓ %s: %d hits\n", p.Pattern, p.Count)
		} else {
			fmt.Fprintf(w, "  ✗ %s: 0 hits\n", p.Pattern)
		}
	}
}
