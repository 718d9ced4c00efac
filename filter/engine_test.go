package filter

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/fault"
)

func levels(levels ...string) []entity.Event {
	events := make([]entity.Event, len(levels))
	for i, l := range levels {
		events[i] = entity.Event{Level: l, LineNumber: i + 1}
	}
	return events
}

func TestApplyOverSlice(t *testing.T) {
	seq := Apply(Slice(levels("Error", "Info", "Error", "Warning")), Level("error"))

	got, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].LineNumber)
	assert.Equal(t, 3, got[1].LineNumber, "order is preserved")
}

func TestApplyIsLazy(t *testing.T) {
	src := &countingSequence{events: levels("Error", "Info", "Error")}
	seq := Apply(src, Level("error"))

	assert.Zero(t, src.pulls, "nothing is pulled before the consumer asks")

	event, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, event.LineNumber)
	assert.Equal(t, 1, src.pulls, "one downstream pull, one upstream pull on a match")

	event, err = seq.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, event.LineNumber)
	assert.Equal(t, 3, src.pulls, "non-matching events are pulled through, never buffered")
}

func TestApplyPropagatesFaults(t *testing.T) {
	boom := fault.New(fault.MalformedLineCode, "line 3 is not a valid JSON object")
	src := &countingSequence{events: levels("Error"), failAfter: 1, err: boom}
	seq := Apply(src, Level("error"))

	_, err := seq.Next()
	require.NoError(t, err)

	_, err = seq.Next()
	assert.Equal(t, boom, err, "underlying faults pass through unchanged")
}

func TestApplyCloseReachesUnderlying(t *testing.T) {
	src := &countingSequence{events: levels("Error")}
	seq := Apply(src, Level("error"))

	require.NoError(t, seq.Close())
	assert.True(t, src.closed)
}

func TestCollectClosesSequence(t *testing.T) {
	src := &countingSequence{events: levels("Error", "Info")}

	got, err := Collect(src)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, src.closed)
}

func TestSliceSequenceEnds(t *testing.T) {
	seq := Slice(levels("Error"))

	_, err := seq.Next()
	require.NoError(t, err)
	_, err = seq.Next()
	assert.Equal(t, io.EOF, err)
}

type countingSequence struct {
	events    []entity.Event
	pulls     int
	closed    bool
	failAfter int // pulls after which err is returned, 0 = never
	err       error
}

func (s *countingSequence) Next() (*entity.Event, error) {
	s.pulls++
	if s.failAfter > 0 && s.pulls > s.failAfter {
		return nil, s.err
	}
	if s.pulls > len(s.events) {
		return nil, io.EOF
	}
	return &s.events[s.pulls-1], nil
}

func (s *countingSequence) Close() error {
	s.closed = true
	return nil
}
