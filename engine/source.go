package engine

import (
	"context"

	"github.com/thisisjab/clefzilla/source"
)

// LineProvider is the contract for loader inputs: anything that can push
// raw CLEF lines into a channel until its context is cancelled.
type LineProvider interface {
	Name() string
	Provide(ctx context.Context, lines chan<- source.Line) error
}
