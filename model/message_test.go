package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func encode(t *testing.T, msg Message) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func TestMessage_EncodeJSON(t *testing.T) {
	empty := ""
	text := "Hello <team> & co"

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "absent body is null",
			msg:  Message{To: []string{}, Cc: []string{}, Bcc: []string{}},
			want: `{"subject":"","from":"","to":[],"date":"","cc":[],"bcc":[],"body":null}`,
		},
		{
			name: "empty body is an empty string",
			msg:  Message{Subject: "Hi", To: []string{"b@y.com"}, Cc: []string{}, Bcc: []string{}, Body: &empty},
			want: `{"subject":"Hi","from":"","to":["b@y.com"],"date":"","cc":[],"bcc":[],"body":""}`,
		},
		{
			name: "all fields in order",
			msg: Message{
				Subject: "Lunch",
				From:    "Carol <carol@example.com>",
				To:      []string{"a@x.com"},
				Date:    "Mon, 01 Jan 2024 12:10:00 +0000",
				Cc:      []string{"bob@example.com"},
				Bcc:     []string{"audit@example.com"},
				Body:    &text,
			},
			want: `{"subject":"Lunch","from":"Carol <carol@example.com>","to":["a@x.com"],"date":"Mon, 01 Jan 2024 12:10:00 +0000","cc":["bob@example.com"],"bcc":["audit@example.com"],"body":"Hello <team> & co"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, tt.msg); got != tt.want {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMessage_BodyAccessors(t *testing.T) {
	var msg Message
	if msg.HasBody() || msg.BodyText() != "" {
		t.Errorf("zero Message: HasBody() = %v, BodyText() = %q", msg.HasBody(), msg.BodyText())
	}

	body := "Noon?"
	msg.Body = &body
	if !msg.HasBody() || msg.BodyText() != "Noon?" {
		t.Errorf("HasBody() = %v, BodyText() = %q, want true and %q", msg.HasBody(), msg.BodyText(), "Noon?")
	}
}
