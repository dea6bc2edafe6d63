package mbox

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	separatorPrefix = []byte("From ")

	errNoSeparator = errors.New(`content does not start with a "From " line`)
)

// entryReader splits an mbox stream into raw entries. Entry bytes are kept
// exactly as stored, line endings included. The separator line and the one
// blank line that ends an entry before the next separator are not part of
// the entry. Escaped ">From " lines are body content and stay escaped.
type entryReader struct {
	br *bufio.Reader

	// pending is set when the separator of the next entry was already read.
	pending bool
	eof     bool
}

func newEntryReader(r io.Reader) *entryReader {
	return &entryReader{br: bufio.NewReader(r)}
}

// next returns the next entry, or io.EOF when the stream is exhausted.
func (r *entryReader) next() ([]byte, error) {
	if !r.pending {
		if r.eof {
			return nil, io.EOF
		}
		if err := r.seekSeparator(); err != nil {
			return nil, err
		}
	}
	r.pending = false

	var entry bytes.Buffer
	blank := 0
	for {
		line, err := r.br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		if isSeparator(line) {
			entry.Truncate(entry.Len() - blank)
			r.pending = true
			r.eof = err != nil
			return entry.Bytes(), nil
		}

		entry.Write(line)
		blank = blankLength(line)

		if err != nil {
			r.eof = true
			return entry.Bytes(), nil
		}
	}
}

// seekSeparator consumes leading blank lines and the first separator line.
func (r *entryReader) seekSeparator() error {
	for {
		line, err := r.br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		switch {
		case isSeparator(line):
			r.eof = err != nil
			return nil
		case len(bytes.TrimSpace(line)) > 0:
			return errNoSeparator
		}

		if err != nil {
			r.eof = true
			return io.EOF
		}
	}
}

func isSeparator(line []byte) bool {
	return bytes.HasPrefix(line, separatorPrefix)
}

// blankLength returns the length of line if it is an empty line, else 0.
func blankLength(line []byte) int {
	switch string(line) {
	case "\n", "\r\n":
		return len(line)
	default:
		return 0
	}
}
