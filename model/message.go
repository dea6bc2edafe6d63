package model

// Message is the record produced for a single message of an mbox archive.
//
// Body is nil when the message carries no qualifying plain-text part; an
// empty plain-text part yields a non-nil pointer to "".
type Message struct {
	Subject string   `json:"subject"`
	From    string   `json:"from"`
	To      []string `json:"to"`
	Date    string   `json:"date"`
	Cc      []string `json:"cc"`
	Bcc     []string `json:"bcc"`
	Body    *string  `json:"body"`
}

// HasBody reports whether a plain-text body was selected.
func (m Message) HasBody() bool {
	return m.Body != nil
}

// BodyText returns the body, or "" when absent.
func (m Message) BodyText() string {
	if m.Body == nil {
		return ""
	}
	return *m.Body
}
