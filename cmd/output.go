package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dhcgn/mbox-to-json/config"
	"github.com/dhcgn/mbox-to-json/model"
)

func writeOutput(cfg config.Config, stdout io.Writer, messages []model.Message) error {
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return writeRecords(stdout, messages, cfg.Pretty, cfg.Lines)
	}

	file, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writeRecords(file, messages, cfg.Pretty, cfg.Lines); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// writeRecords encodes messages as a single JSON array, or as JSON Lines when
// lines is set. Angle brackets in addresses are written as-is.
func writeRecords(w io.Writer, messages []model.Message, pretty, lines bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}

	if !lines {
		if messages == nil {
			messages = []model.Message{}
		}
		if err := enc.Encode(messages); err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		return nil
	}

	for i, msg := range messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return nil
}
