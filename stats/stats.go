package stats

import (
	"fmt"
	"io"
	"sort"
)

type Stage string

const (
	StageMbox    Stage = "mbox"
	StageExtract Stage = "extract"
)

type EventType string

const (
	EventTypeScanned        EventType = "scanned"
	EventTypeFiltered       EventType = "filtered"
	EventTypeConverted      EventType = "converted"
	EventTypeDecodeFallback EventType = "decode_fallback"
	EventTypeAddressDropped EventType = "address_dropped"
	EventTypeHeaderError    EventType = "header_error"
)

// Event describes one step of a parse run. Index is the zero-based position
// of the entry in the mailbox; Count carries the number of recoveries for
// decode_fallback and address_dropped events.
type Event struct {
	Stage Stage
	Type  EventType
	Index int
	Count int
	Err   error
}

type Summary struct {
	Scanned          int
	Filtered         int
	Converted        int
	DecodeFallbacks  int
	DroppedAddresses int
	HeaderErrors     int
	LastError        error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"scanned", s.Scanned,
		"filtered", s.Filtered,
		"converted", s.Converted,
		"decodeFallbacks", s.DecodeFallbacks,
		"droppedAddresses", s.DroppedAddresses,
		"headerErrors", s.HeaderErrors,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Collector folds events into a Summary. It is not safe for concurrent use;
// a parse run records events from a single goroutine.
type Collector struct {
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Record(evt Event) {
	switch evt.Type {
	case EventTypeScanned:
		c.summary.Scanned++
	case EventTypeFiltered:
		c.summary.Filtered++
	case EventTypeConverted:
		c.summary.Converted++
	case EventTypeDecodeFallback:
		c.summary.DecodeFallbacks += max(evt.Count, 1)
	case EventTypeAddressDropped:
		c.summary.DroppedAddresses += max(evt.Count, 1)
	case EventTypeHeaderError:
		c.summary.HeaderErrors++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

func (c *Collector) Snapshot() Summary {
	return c.summary
}

// Count is a value and how often it occurred.
type Count struct {
	Key   string
	Value int
}

// Top returns the limit most frequent entries of m, most frequent first.
// Ties are ordered by key so the result is stable.
func Top(m map[string]int, limit int) []Count {
	pairs := make([]Count, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Count{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	if limit >= 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(w io.Writer, m map[string]int, limit int) {
	for i, p := range Top(m, limit) {
		fmt.Fprintf(w, "%d. %s (%d)\n", i+1, p.Key, p.Value)
	}
}
