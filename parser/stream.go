package parser

import (
	"io"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/source"
)

// Stream wraps a line source as a pull-based event sequence. Nothing is
// read until the first Next call; memory use is bounded by one line at a
// time. The sequence is single-pass: traversing again means reopening the
// source.
func (p *Parser) Stream(src source.LineSource) *Reader {
	return &Reader{p: p, src: src}
}

// Reader yields parsed events on demand. It owns the underlying source and
// closes it on exhaustion, on a terminal fault, or on Close, whichever
// comes first.
type Reader struct {
	p       *Parser
	src     source.LineSource
	line    int
	skipped int
	err     error // sticky terminal fault
	done    bool
}

// Next returns the next event, io.EOF at the end of the source, or a parse
// fault. In strict mode a fault is terminal: the source is released and
// every later call returns the same fault. In lenient mode the failing line
// is skipped and the following line is tried instead.
func (r *Reader) Next() (*entity.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}

	for {
		line, err := r.src.Next()
		if err == io.EOF {
			r.done = true
			if cerr := r.Close(); cerr != nil {
				return nil, cerr
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, r.fail(sourceAccess(err))
		}
		r.line++

		event, err := r.p.ParseLine(line, r.line)
		if err != nil {
			if r.p.cfg.Lenient {
				r.skipped++
				continue
			}
			return nil, r.fail(err)
		}
		if event == nil {
			continue
		}
		return event, nil
	}
}

// Skipped reports how many lines were dropped so far in lenient mode.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Close releases the underlying source. It is idempotent and safe to call
// at any point, including mid-stream abandonment.
func (r *Reader) Close() error {
	r.done = true
	return r.src.Close()
}

func (r *Reader) fail(err error) error {
	r.err = err
	_ = r.src.Close()
	return err
}
