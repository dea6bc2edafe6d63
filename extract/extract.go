// Package extract converts a single RFC 5322 message into a model.Message.
//
// Extraction never fails: undecodable bytes are replaced with U+FFFD,
// malformed addresses are dropped and an unreadable header block yields a
// record with empty header fields. What was absorbed is reported back in a
// Report so callers can log or count it.
package extract

import (
	"bytes"
	"strings"

	"github.com/emersion/go-message"

	"github.com/dhcgn/mbox-to-json/model"
)

// Options tunes extraction.
type Options struct {
	// DetectCharset guesses the charset of parts that declare none and are
	// not valid UTF-8, instead of substituting replacement characters.
	DetectCharset bool
}

// Report lists the recoveries applied while extracting a message.
type Report struct {
	// DecodeFallbacks counts payloads that were only partially decodable.
	DecodeFallbacks int
	// DroppedAddresses counts address-list entries that could not be parsed.
	DroppedAddresses int
	// HeaderErr is set when the header block could not be parsed.
	HeaderErr error
}

// Clean reports whether the message was extracted without any recovery.
func (r Report) Clean() bool {
	return r.DecodeFallbacks == 0 && r.DroppedAddresses == 0 && r.HeaderErr == nil
}

// Parse extracts the record fields of the raw message.
func Parse(raw []byte, opts Options) (model.Message, Report) {
	var rep Report

	ent, err := message.Read(bytes.NewReader(raw))
	if err != nil && !recoverable(err) {
		rep.HeaderErr = err
		repaired, ok := separateHeader(raw)
		if !ok {
			return fromUnparsable(raw, &rep), rep
		}
		ent, err = message.Read(bytes.NewReader(repaired))
		if err != nil && !recoverable(err) {
			return fromUnparsable(raw, &rep), rep
		}
	}

	msg := model.Message{
		Subject: headerText(ent.Header, "Subject"),
		From:    headerText(ent.Header, "From"),
		Date:    headerText(ent.Header, "Date"),
	}

	var dropped int
	msg.To, dropped = Addresses(ent.Header.Get("To"))
	rep.DroppedAddresses += dropped
	msg.Cc, dropped = Addresses(ent.Header.Get("Cc"))
	rep.DroppedAddresses += dropped
	msg.Bcc, dropped = Addresses(ent.Header.Get("Bcc"))
	rep.DroppedAddresses += dropped

	d := &decoder{opts: opts, rep: &rep}
	msg.Body = d.body(ent, err)

	return msg, rep
}

// SplitRaw splits a raw message at the first blank line.
func SplitRaw(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}

	return raw, nil
}

// separateHeader ends the header block in front of the first line that is
// neither a header field nor a continuation line, by inserting the missing
// blank line there. The fields above it are kept and the offending line
// becomes the first line of the body. It reports false when the header
// block has no such line.
func separateHeader(raw []byte) ([]byte, bool) {
	for off := 0; off < len(raw); {
		end := bytes.IndexByte(raw[off:], '\n')
		if end < 0 {
			end = len(raw)
		} else {
			end += off + 1
		}
		line := bytes.TrimRight(raw[off:end], "\r\n")

		switch {
		case len(line) == 0:
			return nil, false
		case line[0] == ' ' || line[0] == '\t':
		case !isHeaderField(line):
			sep := "\n"
			if off > 0 && bytes.HasSuffix(raw[:off], []byte("\r\n")) {
				sep = "\r\n"
			}
			repaired := make([]byte, 0, len(raw)+len(sep))
			repaired = append(repaired, raw[:off]...)
			repaired = append(repaired, sep...)
			return append(repaired, raw[off:]...), true
		}

		off = end
	}
	return nil, false
}

// isHeaderField reports whether line is "name: value" with a name made of
// printable US-ASCII other than the colon.
func isHeaderField(line []byte) bool {
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return false
	}
	for _, c := range bytes.TrimRight(line[:i], " \t") {
		if c < 33 || c > 126 {
			return false
		}
	}
	return true
}

// fromUnparsable builds a record for a message whose header block is broken.
// Everything after the first blank line is kept as the body.
func fromUnparsable(raw []byte, rep *Report) model.Message {
	_, body := SplitRaw(raw)
	text, replaced := toValidUTF8(body)
	if replaced {
		rep.DecodeFallbacks++
	}
	return model.Message{
		To:   []string{},
		Cc:   []string{},
		Bcc:  []string{},
		Body: &text,
	}
}

// headerText returns the header value with RFC 2047 encoded words decoded,
// or the raw value when decoding fails.
func headerText(h message.Header, key string) string {
	raw := h.Get(key)
	if raw == "" {
		return ""
	}
	text, err := h.Text(key)
	if err != nil {
		return raw
	}
	return text
}

// recoverable reports whether go-message still handed back a usable entity.
func recoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func mediaTypeOf(h message.Header) (string, map[string]string) {
	if !h.Has("Content-Type") {
		return "text/plain", nil
	}
	t, params, err := h.ContentType()
	if err != nil || t == "" {
		return "text/plain", nil
	}
	return strings.ToLower(t), params
}
