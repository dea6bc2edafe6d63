package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-to-json/filter"
)

// Config captures all command-line options of a conversion run.
type Config struct {
	MboxPath      string
	OutputPath    string
	Pretty        bool
	Lines         bool
	// Raw is accepted for compatibility; records are always normalized, so
	// nothing reads it.
	Raw           bool
	Quiet         bool
	DetectCharset bool
	LogLevel      string
	LogDir        string
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
	TopN          int
	ReportDir     string
}

// FilterOptions returns the include/exclude patterns as filter options.
func (c Config) FilterOptions() filter.Options {
	return filter.Options{
		IncludeHeader: c.IncludeHeader,
		IncludeBody:   c.IncludeBody,
		ExcludeHeader: c.ExcludeHeader,
		ExcludeBody:   c.ExcludeBody,
	}
}

// RegisterFlags attaches the flags shared by every command to cmd as
// persistent flags.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("mbox", "", "Path to the .mbox file (defaults to the first argument, then stdin)")
	flags.Bool("quiet", false, "Suppress warnings about undecodable content and malformed addresses")
	flags.Bool("detect-charset", false, "Guess the charset of parts that declare none and are not valid UTF-8")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for a log file mirroring stderr output")
	flags.StringArray("include-header", nil, "Regex allow-list applied to message headers (mutually exclusive with exclude flags)")
	flags.StringArray("include-body", nil, "Regex allow-list applied to message bodies (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-header", nil, "Regex block-list applied to message headers (mutually exclusive with include flags)")
	flags.StringArray("exclude-body", nil, "Regex block-list applied to message bodies (mutually exclusive with include flags)")
}

// RegisterOutputFlags attaches the flags of the JSON conversion command.
func RegisterOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "-", "Output file for the JSON records, - for stdout")
	flags.Bool("pretty", false, "Indent the JSON output")
	flags.Bool("lines", false, "Write one JSON record per line instead of an array")
	flags.Bool("raw", false, "Emit records without post-processing (records are already normalized, so output is unchanged)")
}

// RegisterReportFlags attaches the flags of the mbox-stats command.
func RegisterReportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", ".", "Output directory for CSV reports")
	flags.IntP("top", "t", 10, "Number of top items to display in statistics")
}

// LoadConfig converts the parsed Cobra flags into a Config struct with
// validation. The mailbox path is taken from args, then --mbox, then the
// whole of stdin.
func LoadConfig(cmd *cobra.Command, args []string, stdin io.Reader) (Config, error) {
	flags := cmd.Flags()

	mboxPath, err := flags.GetString("mbox")
	if err != nil {
		return Config{}, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return Config{}, err
	}
	detectCharset, err := flags.GetBool("detect-charset")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}
	includeHeader, err := flags.GetStringArray("include-header")
	if err != nil {
		return Config{}, err
	}
	includeBody, err := flags.GetStringArray("include-body")
	if err != nil {
		return Config{}, err
	}
	excludeHeader, err := flags.GetStringArray("exclude-header")
	if err != nil {
		return Config{}, err
	}
	excludeBody, err := flags.GetStringArray("exclude-body")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Quiet:         quiet,
		DetectCharset: detectCharset,
		LogDir:        logDir,
		IncludeHeader: includeHeader,
		IncludeBody:   includeBody,
		ExcludeHeader: excludeHeader,
		ExcludeBody:   excludeBody,
		OutputPath:    "-",
	}

	if err := loadCommandFlags(cmd, &cfg); err != nil {
		return Config{}, err
	}

	switch {
	case len(args) > 0:
		cfg.MboxPath = args[0]
	case mboxPath != "":
		cfg.MboxPath = mboxPath
	case stdin != nil:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return Config{}, fmt.Errorf("read mbox path from stdin: %w", err)
		}
		cfg.MboxPath = string(data)
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}
	cfg.LogLevel = logLevel

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadCommandFlags reads the flags only some commands define.
func loadCommandFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Lookup("pretty") != nil {
		if cfg.OutputPath, err = flags.GetString("output"); err != nil {
			return err
		}
		if cfg.Pretty, err = flags.GetBool("pretty"); err != nil {
			return err
		}
		if cfg.Lines, err = flags.GetBool("lines"); err != nil {
			return err
		}
		if cfg.Raw, err = flags.GetBool("raw"); err != nil {
			return err
		}
	}

	if flags.Lookup("top") != nil {
		if cfg.ReportDir, err = flags.GetString("output"); err != nil {
			return err
		}
		if cfg.TopN, err = flags.GetInt("top"); err != nil {
			return err
		}
	}

	return nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.MboxPath) == "" {
		return fmt.Errorf("mbox path is required (argument, --mbox or stdin)")
	}
	if cfg.Pretty && cfg.Lines {
		return fmt.Errorf("--pretty and --lines are mutually exclusive")
	}
	if cfg.TopN < 0 {
		return fmt.Errorf("--top must not be negative")
	}

	includeActive := len(cfg.IncludeHeader) > 0 || len(cfg.IncludeBody) > 0
	excludeActive := len(cfg.ExcludeHeader) > 0 || len(cfg.ExcludeBody) > 0
	if includeActive && excludeActive {
		return fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
