package extract

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/unicode"
)

// toValidUTF8 replaces every byte that is not part of a valid UTF-8 sequence
// with U+FFFD. The second result reports whether anything was replaced.
func toValidUTF8(data []byte) (string, bool) {
	if utf8.Valid(data) {
		return string(data), false
	}
	decoded, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD"))), true
	}
	return string(decoded), true
}

// convertCharset decodes data from the named charset into UTF-8.
func convertCharset(name string, data []byte) ([]byte, bool) {
	r, err := charset.Reader(name, bytes.NewReader(data))
	if err != nil {
		return data, false
	}
	converted, err := io.ReadAll(r)
	if err != nil {
		return data, false
	}
	return converted, true
}

// detectAndConvert guesses the charset of data that is not valid UTF-8 and
// converts it when the guess is confident enough. Short samples are accepted
// with a lower confidence.
func detectAndConvert(data []byte) ([]byte, bool) {
	if len(data) == 0 || utf8.Valid(data) {
		return data, false
	}

	minConfidence := 30
	if len(data) > 50 {
		minConfidence = 50
	}

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result.Confidence < minConfidence {
		return data, false
	}

	converted, ok := convertCharset(result.Charset, data)
	if !ok || !utf8.Valid(converted) {
		return data, false
	}
	return converted, true
}
