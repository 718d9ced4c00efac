package filter

import (
	"io"

	"github.com/thisisjab/clefzilla/entity"
)

// Sequence is a pull-based event stream: Next yields the next event, io.EOF
// at the end, or a fault. parser.Reader satisfies it; Slice adapts an
// already-materialized collection.
type Sequence interface {
	Next() (*entity.Event, error)
	Close() error
}

// Apply wraps a sequence so that only events matching the predicate come
// through. Evaluation is lazy: one upstream pull per downstream pull until
// a match is found, no buffering, no reordering. Faults from the underlying
// sequence propagate unchanged.
func Apply(seq Sequence, pred Predicate) Sequence {
	return &filtered{seq: seq, pred: pred}
}

type filtered struct {
	seq  Sequence
	pred Predicate
}

func (f *filtered) Next() (*entity.Event, error) {
	for {
		event, err := f.seq.Next()
		if err != nil {
			return nil, err
		}
		if f.pred(*event) {
			return event, nil
		}
	}
}

func (f *filtered) Close() error {
	return f.seq.Close()
}

// Slice adapts a materialized event collection to the Sequence interface.
func Slice(events []entity.Event) Sequence {
	return &sliceSequence{events: events}
}

type sliceSequence struct {
	events []entity.Event
	pos    int
}

func (s *sliceSequence) Next() (*entity.Event, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	event := &s.events[s.pos]
	s.pos++
	return event, nil
}

func (s *sliceSequence) Close() error {
	s.pos = len(s.events)
	return nil
}

// Collect drains a sequence into a slice, closing it on every exit path.
// The returned error is nil on normal exhaustion.
func Collect(seq Sequence) ([]entity.Event, error) {
	defer seq.Close()

	var events []entity.Event
	for {
		event, err := seq.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
}
