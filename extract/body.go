package extract

import (
	"io"
	"strings"

	"github.com/emersion/go-message"
)

type decoder struct {
	opts Options
	rep  *Report
}

// body selects and decodes the message body. Containers are walked depth
// first and yield the first inline text/plain part; any other message is
// decoded as a whole.
func (d *decoder) body(ent *message.Entity, entErr error) *string {
	mediaType, params := mediaTypeOf(ent.Header)
	if !isContainer(mediaType, params) {
		text := d.decode(ent, entErr)
		return &text
	}

	text, ok := d.visit(ent, entErr)
	if !ok {
		return nil
	}
	return &text
}

func (d *decoder) visit(ent *message.Entity, entErr error) (string, bool) {
	mediaType, params := mediaTypeOf(ent.Header)

	switch {
	case isMultipart(mediaType, params):
		mr := ent.MultipartReader()
		if mr == nil {
			return "", false
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return "", false
			}
			if part == nil || (err != nil && !recoverable(err)) {
				// Truncated or broken multipart: keep what was walked so far.
				d.rep.DecodeFallbacks++
				return "", false
			}
			if text, ok := d.visit(part, err); ok {
				return text, true
			}
		}
	case mediaType == "message/rfc822":
		inner, err := message.Read(ent.Body)
		if inner == nil || (err != nil && !recoverable(err)) {
			return "", false
		}
		return d.visit(inner, err)
	}

	if mediaType == "text/plain" && !isAttachment(ent.Header) {
		return d.decode(ent, entErr), true
	}
	return "", false
}

// decode reads a leaf payload and converts it to valid UTF-8. Transfer
// encoding is already undone by go-message, and for text/* parts so is a
// charset it knows.
func (d *decoder) decode(ent *message.Entity, entErr error) string {
	data, err := io.ReadAll(ent.Body)
	if err != nil {
		d.rep.DecodeFallbacks++
	}

	mediaType, params := mediaTypeOf(ent.Header)
	cs := strings.ToLower(strings.TrimSpace(params["charset"]))

	switch {
	case cs == "":
		if d.opts.DetectCharset {
			if converted, ok := detectAndConvert(data); ok {
				data = converted
			}
		}
	case strings.HasPrefix(mediaType, "text/"):
		if message.IsUnknownCharset(entErr) {
			d.rep.DecodeFallbacks++
		}
	default:
		// go-message only applies charsets to text/*.
		converted, ok := convertCharset(cs, data)
		if ok {
			data = converted
		} else {
			d.rep.DecodeFallbacks++
		}
	}

	text, replaced := toValidUTF8(data)
	if replaced {
		d.rep.DecodeFallbacks++
	}
	return text
}

func isContainer(mediaType string, params map[string]string) bool {
	return isMultipart(mediaType, params) || mediaType == "message/rfc822"
}

// isMultipart requires a boundary; without one the part is treated as a leaf.
func isMultipart(mediaType string, params map[string]string) bool {
	return strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != ""
}

// isAttachment matches "attachment" anywhere in the raw disposition value,
// case-sensitively, so "ATTACHMENT" parts stay eligible as the body.
func isAttachment(h message.Header) bool {
	return strings.Contains(h.Get("Content-Disposition"), "attachment")
}
