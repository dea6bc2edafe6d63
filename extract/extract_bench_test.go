package extract

import (
	"testing"
)

// BenchmarkSplitRaw benchmarks the raw message splitting used by the filter
func BenchmarkSplitRaw(b *testing.B) {
	raw := []byte("From: test@example.com\nTo: user@example.com\nSubject: Test\n\r\n\r\nThis is the body of the message.")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SplitRaw(raw)
	}
}

// BenchmarkParse_Multipart benchmarks extraction of a two-part message
func BenchmarkParse_Multipart(b *testing.B) {
	raw := []byte("Subject: Lunch\n" +
		"From: Carol <carol@example.com>\n" +
		"To: a@x.com, \"Team, All\" <team@example.com>\n" +
		"Content-Type: multipart/alternative; boundary=alt\n" +
		"\n" +
		"--alt\n" +
		"Content-Type: text/html\n" +
		"\n" +
		"<p>Noon?</p>\n" +
		"--alt\n" +
		"Content-Type: text/plain; charset=utf-8\n" +
		"\n" +
		"Noon?\n" +
		"--alt--\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(raw, Options{})
	}
}
