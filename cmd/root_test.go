package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhcgn/mbox-to-json/model"
)

const testMbox = "From alice@example.com Mon Jan  1 12:00:00 2024\n" +
	"Subject: Hi\n" +
	"From: Alice <a@x.com>\n" +
	"To: b@y.com, c@z.com\n" +
	"\n" +
	"Hello\n" +
	"\n" +
	"From bob@example.com Mon Jan  1 12:05:00 2024\n" +
	"Subject: Files\n" +
	"From: bob@example.com\n" +
	"To: a@x.com\n" +
	"Content-Type: multipart/mixed; boundary=b1\n" +
	"\n" +
	"--b1\n" +
	"Content-Type: text/plain\n" +
	"Content-Disposition: attachment; filename=notes.txt\n" +
	"\n" +
	"notes\n" +
	"--b1--\n"

func writeTestMbox(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mbox")
	if err := os.WriteFile(path, []byte(testMbox), 0o600); err != nil {
		t.Fatalf("write mbox: %v", err)
	}
	return path
}

func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_WritesJSONArray(t *testing.T) {
	path := writeTestMbox(t)

	stdout, stderr, err := runCommand(t, "", path)
	if err != nil {
		t.Fatalf("Execute() error = %v (stderr: %s)", err, stderr)
	}

	if !strings.Contains(stdout, `"from":"Alice <a@x.com>"`) {
		t.Errorf("stdout = %s, want angle brackets written as-is", stdout)
	}
	if !strings.Contains(stdout, `"body":null`) {
		t.Errorf("stdout = %s, want a null body for the attachment-only message", stdout)
	}

	var records []model.Message
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("stdout is not a JSON array: %v", err)
	}
	var subjects []string
	for _, r := range records {
		subjects = append(subjects, r.Subject)
	}
	if diff := cmp.Diff([]string{"Hi", "Files"}, subjects); diff != "" {
		t.Errorf("subjects mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr, "conversion completed") {
		t.Errorf("stderr = %q, want a completion log line", stderr)
	}
}

func TestRootCommand_PathFromStdin(t *testing.T) {
	path := writeTestMbox(t)

	stdout, _, err := runCommand(t, "  "+path+" \n")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var records []model.Message
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("stdout is not a JSON array: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestRootCommand_LinesToFile(t *testing.T) {
	path := writeTestMbox(t)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	stdout, _, err := runCommand(t, "", "--lines", "--quiet", "-o", out, "--include-header", "Subject: Hi", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing when writing to a file", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), data)
	}

	var record model.Message
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("line is not a JSON object: %v", err)
	}
	if record.Subject != "Hi" || record.BodyText() != "Hello\n" {
		t.Errorf("record = %+v, want the Hi message", record)
	}
}

func TestRootCommand_RawMatchesDefault(t *testing.T) {
	path := writeTestMbox(t)

	normalized, _, err := runCommand(t, "", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	raw, _, err := runCommand(t, "", "--raw", path)
	if err != nil {
		t.Fatalf("Execute(--raw) error = %v", err)
	}
	if raw != normalized {
		t.Errorf("--raw output differs:\n%s\nwant:\n%s", raw, normalized)
	}
}

func TestRootCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	notMbox := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notMbox, []byte("plain notes\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing file", []string{filepath.Join(dir, "missing.mbox")}, "mbox path not readable"},
		{"directory", []string{dir}, "mbox path not readable"},
		{"not an mbox", []string{notMbox}, "invalid mbox format"},
		{"pretty and lines", []string{"--pretty", "--lines", notMbox}, "mutually exclusive"},
		{"bad pattern", []string{"--exclude-body", "(", notMbox}, "create filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCommand(t, "", tt.args...)
			if err == nil {
				t.Fatalf("Execute() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %q, want it to contain %q", err, tt.wantErr)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want no partial output", stdout)
			}
		})
	}
}

func TestCountCommand(t *testing.T) {
	path := writeTestMbox(t)

	stdout, _, err := runCommand(t, "", "count", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.TrimSpace(stdout); got != "2" {
		t.Errorf("count output = %q, want %q", got, "2")
	}
}

func TestStatsCommand_WritesReports(t *testing.T) {
	path := writeTestMbox(t)
	reportDir := filepath.Join(t.TempDir(), "reports")

	stdout, _, err := runCommand(t, "", "mbox-stats", "-o", reportDir, "-t", "1", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"Processed 2 messages", "Top 1 From:", "Top 1 To:", "Plain-text bodies: 1 of 2 messages (6 bytes)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	data, err := os.ReadFile(filepath.Join(reportDir, "report_to.csv"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	want := "Value,Count\na@x.com,1\nb@y.com,1\nc@z.com,1\n"
	if got := string(data); got != want {
		t.Errorf("report_to.csv = %q, want %q", got, want)
	}

	for _, field := range trackedFields {
		name := "report_" + normalizeFieldName(field) + ".csv"
		if _, err := os.Stat(filepath.Join(reportDir, name)); err != nil {
			t.Errorf("missing report %s: %v", name, err)
		}
	}
}

func TestWriteRecords_EmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRecords(&buf, nil, false, false); err != nil {
		t.Fatalf("writeRecords() error = %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("writeRecords() = %q, want %q", got, "[]\n")
	}
}
