package extract

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// Addresses parses an RFC 5322 address-list header value and returns the bare
// addresses in parse order. Display names, comments and group names are
// dropped; duplicates are kept. If the list as a whole does not parse, each
// top-level entry is parsed on its own and the ones that still fail are
// skipped; the second result is the number of skipped entries.
func Addresses(value string) ([]string, int) {
	out := []string{}
	if strings.TrimSpace(value) == "" {
		return out, 0
	}

	if list, err := mail.ParseAddressList(value); err == nil {
		return appendAddresses(out, list), 0
	}

	dropped := 0
	for _, entry := range splitAddressList(value) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		list, err := mail.ParseAddressList(entry)
		if err != nil {
			dropped++
			continue
		}
		out = appendAddresses(out, list)
	}
	return out, dropped
}

func appendAddresses(out []string, list []*mail.Address) []string {
	for _, addr := range list {
		if addr == nil || addr.Address == "" {
			continue
		}
		out = append(out, addr.Address)
	}
	return out
}

// splitAddressList splits value at commas that are outside quoted strings,
// angle brackets, comments and groups.
func splitAddressList(value string) []string {
	var (
		entries []string
		start   int
		quoted  bool
		escaped bool
		angle   int
		comment int
		group   bool
	)

	for i := 0; i < len(value); i++ {
		c := value[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && (quoted || comment > 0):
			escaped = true
		case c == '"' && comment == 0:
			quoted = !quoted
		case quoted:
		case c == '(':
			comment++
		case c == ')' && comment > 0:
			comment--
		case comment > 0:
		case c == '<':
			angle++
		case c == '>' && angle > 0:
			angle--
		case angle > 0:
		case c == ':':
			group = true
		case c == ';' && group:
			group = false
		case c == ',' && !group:
			entries = append(entries, value[start:i])
			start = i + 1
		}
	}
	return append(entries, value[start:])
}
