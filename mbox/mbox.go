package mbox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dhcgn/mbox-to-json/filter"
	"github.com/dhcgn/mbox-to-json/model"
	"github.com/dhcgn/mbox-to-json/stats"
)

var (
	// ErrPath is returned when the mailbox path cannot be opened for reading.
	ErrPath = errors.New("mbox path not readable")
	// ErrFormat is returned when the content cannot be split into mbox entries.
	ErrFormat = errors.New("invalid mbox format")
)

// Options configures a parse run. The zero value converts every message.
type Options struct {
	// Filter drops entries before extraction. Nil keeps everything.
	Filter *filter.Filter
	// DetectCharset guesses the charset of undeclared non-UTF-8 payloads.
	DetectCharset bool
	// Logger receives per-message warnings and a debug summary. May be nil.
	Logger *slog.Logger
	// Quiet suppresses warning-level logging of absorbed failures.
	Quiet bool
	// Stats receives an event per entry and per recovery. May be nil.
	Stats *stats.Collector
}

// NormalizePath trims s and collapses every internal run of whitespace to a
// single space.
func NormalizePath(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Parse reads the mbox file at path and returns one record per message, in
// mailbox order. The path is normalized with NormalizePath first.
func Parse(path string, opts Options) ([]model.Message, error) {
	file, err := open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseReader(file, opts)
}

// ParseReader is Parse over an already opened mailbox stream.
func ParseReader(r io.Reader, opts Options) ([]model.Message, error) {
	p := &parser{opts: opts}
	messages := []model.Message{}

	err := each(r, func(idx int, raw []byte) error {
		if msg, ok := p.convert(idx, raw); ok {
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Debug("mbox parsed", "messages", len(messages))
	}
	return messages, nil
}

// Read hands every raw entry of the mbox file at path to fn, in mailbox
// order. Iteration stops at the first error returned by fn.
func Read(path string, fn func(idx int, raw []byte) error) error {
	file, err := open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return each(file, fn)
}

// CountMessages counts the entries of the mbox file at path without
// extracting any fields.
func CountMessages(path string) (int, error) {
	count := 0
	err := Read(path, func(int, []byte) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func open(path string) (*os.File, error) {
	path = NormalizePath(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrPath)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPath, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", ErrPath, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrPath, path)
	}

	return file, nil
}

// each splits r into mbox entries and hands each one to fn.
func each(r io.Reader, fn func(idx int, raw []byte) error) error {
	reader := newEntryReader(r)

	for idx := 0; ; idx++ {
		raw, err := reader.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: message %d: %w", ErrFormat, idx, err)
		}

		if err := fn(idx, raw); err != nil {
			return err
		}
	}
}
