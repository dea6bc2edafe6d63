package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Options captures the filtering configuration.
type Options struct {
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
}

// Active reports whether any pattern is configured.
func (o Options) Active() bool {
	return len(o.IncludeHeader)+len(o.IncludeBody)+len(o.ExcludeHeader)+len(o.ExcludeBody) > 0
}

// Stats lists the configured patterns per list and how many messages each
// one matched.
type Stats struct {
	IncludeHeaderPatterns []string
	IncludeHeaderHits     map[string]int
	IncludeBodyPatterns   []string
	IncludeBodyHits       map[string]int
	ExcludeHeaderPatterns []string
	ExcludeHeaderHits     map[string]int
	ExcludeBodyPatterns   []string
	ExcludeBodyHits       map[string]int
}

// Filter decides which mbox entries are converted, by matching regular
// expressions against the raw header block and the raw body.
type Filter struct {
	includeMode   bool
	excludeMode   bool
	includeHeader *patternSet
	includeBody   *patternSet
	excludeHeader *patternSet
	excludeBody   *patternSet
}

// New creates a new Filter from the provided options.
func New(opts Options) (*Filter, error) {
	includeHeader, err := compilePatterns(opts.IncludeHeader)
	if err != nil {
		return nil, fmt.Errorf("compile include-header pattern: %w", err)
	}
	includeBody, err := compilePatterns(opts.IncludeBody)
	if err != nil {
		return nil, fmt.Errorf("compile include-body pattern: %w", err)
	}
	excludeHeader, err := compilePatterns(opts.ExcludeHeader)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-header pattern: %w", err)
	}
	excludeBody, err := compilePatterns(opts.ExcludeBody)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-body pattern: %w", err)
	}

	includeActive := !includeHeader.empty() || !includeBody.empty()
	excludeActive := !excludeHeader.empty() || !excludeBody.empty()
	if includeActive && excludeActive {
		return nil, fmt.Errorf("include and exclude filters are mutually exclusive")
	}

	return &Filter{
		includeMode:   includeActive,
		excludeMode:   excludeActive,
		includeHeader: includeHeader,
		includeBody:   includeBody,
		excludeHeader: excludeHeader,
		excludeBody:   excludeBody,
	}, nil
}

// Allows returns true if the message passes the filter criteria. Every
// pattern is evaluated so the hit counters reflect all matches.
func (f *Filter) Allows(header, body []byte) bool {
	switch {
	case f.includeMode:
		headerHit := f.includeHeader.match(header)
		bodyHit := f.includeBody.match(body)
		return headerHit || bodyHit
	case f.excludeMode:
		headerHit := f.excludeHeader.match(header)
		bodyHit := f.excludeBody.match(body)
		return !headerHit && !bodyHit
	default:
		return true
	}
}

// GetStats returns a copy of the per-pattern hit counters.
func (f *Filter) GetStats() Stats {
	return Stats{
		IncludeHeaderPatterns: f.includeHeader.sources(),
		IncludeHeaderHits:     f.includeHeader.snapshot(),
		IncludeBodyPatterns:   f.includeBody.sources(),
		IncludeBodyHits:       f.includeBody.snapshot(),
		ExcludeHeaderPatterns: f.excludeHeader.sources(),
		ExcludeHeaderHits:     f.excludeHeader.snapshot(),
		ExcludeBodyPatterns:   f.excludeBody.sources(),
		ExcludeBodyHits:       f.excludeBody.snapshot(),
	}
}

type patternSet struct {
	patterns []*regexp.Regexp
	hits     map[string]int
}

func compilePatterns(patterns []string) (*patternSet, error) {
	set := &patternSet{hits: make(map[string]int)}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		set.patterns = append(set.patterns, re)
	}
	return set, nil
}

func (s *patternSet) empty() bool {
	return len(s.patterns) == 0
}

func (s *patternSet) match(text []byte) bool {
	matched := false
	for _, re := range s.patterns {
		if re.Match(text) {
			s.hits[re.String()]++
			matched = true
		}
	}
	return matched
}

func (s *patternSet) sources() []string {
	out := make([]string, 0, len(s.patterns))
	for _, re := range s.patterns {
		out = append(out, re.String())
	}
	return out
}

func (s *patternSet) snapshot() map[string]int {
	out := make(map[string]int, len(s.hits))
	for k, v := range s.hits {
		out[k] = v
	}
	return out
}
