package mbox

import (
	"github.com/dhcgn/mbox-to-json/extract"
	"github.com/dhcgn/mbox-to-json/model"
	"github.com/dhcgn/mbox-to-json/stats"
)

type parser struct {
	opts Options
}

// convert filters and extracts a single entry. The bool is false when the
// filter rejected the entry.
func (p *parser) convert(idx int, raw []byte) (model.Message, bool) {
	p.emit(stats.Event{Stage: stats.StageMbox, Type: stats.EventTypeScanned, Index: idx})

	if p.opts.Filter != nil {
		header, body := extract.SplitRaw(raw)
		if !p.opts.Filter.Allows(header, body) {
			p.emit(stats.Event{Stage: stats.StageMbox, Type: stats.EventTypeFiltered, Index: idx})
			return model.Message{}, false
		}
	}

	msg, rep := extract.Parse(raw, extract.Options{DetectCharset: p.opts.DetectCharset})
	p.report(idx, rep)
	p.emit(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeConverted, Index: idx})
	return msg, true
}

func (p *parser) report(idx int, rep extract.Report) {
	if rep.Clean() {
		return
	}

	if rep.HeaderErr != nil {
		p.emit(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeHeaderError, Index: idx, Err: rep.HeaderErr})
		p.warn("unparsable message header", "message", idx, "err", rep.HeaderErr)
	}
	if rep.DroppedAddresses > 0 {
		p.emit(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeAddressDropped, Index: idx, Count: rep.DroppedAddresses})
		p.warn("skipped malformed addresses", "message", idx, "count", rep.DroppedAddresses)
	}
	if rep.DecodeFallbacks > 0 {
		p.emit(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeDecodeFallback, Index: idx, Count: rep.DecodeFallbacks})
		p.warn("replaced undecodable content", "message", idx, "count", rep.DecodeFallbacks)
	}
}

func (p *parser) emit(evt stats.Event) {
	if p.opts.Stats != nil {
		p.opts.Stats.Record(evt)
	}
}

func (p *parser) warn(msg string, args ...any) {
	if p.opts.Quiet || p.opts.Logger == nil {
		return
	}
	p.opts.Logger.Warn(msg, args...)
}
