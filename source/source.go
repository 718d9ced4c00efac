package source

import (
	"bufio"
	"io"
	"strings"
)

// LineSource supplies decoded lines one at a time. Next returns io.EOF when
// the source is exhausted. Close releases the underlying handle and is safe
// to call more than once; consumers that abandon a source early must call
// it.
type LineSource interface {
	Next() (string, error)
	Close() error
}

// FromReader wraps an already-decoded stream as a LineSource. Close closes
// the reader only when it implements io.Closer.
func FromReader(r io.Reader) LineSource {
	return &readerSource{br: bufio.NewReader(r), r: r}
}

// FromString is a convenience for tests and in-memory input.
func FromString(s string) LineSource {
	return FromReader(strings.NewReader(s))
}

type readerSource struct {
	br     *bufio.Reader
	r      io.Reader
	closed bool
}

func (s *readerSource) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	line, err := s.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	// The final line may arrive without a trailing newline.
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

func (s *readerSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
