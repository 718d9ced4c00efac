package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/parser"
	"github.com/thisisjab/clefzilla/source"
)

// parseManager fans incoming lines out over a pool of workers that run the
// CLEF parser and forward parsed events.
type parseManager struct {
	parser       *parser.Parser
	logger       *slog.Logger
	workersCount uint
	wg           sync.WaitGroup
}

func newParseManager(logger *slog.Logger, p *parser.Parser, workersCount uint) *parseManager {
	return &parseManager{
		parser:       p,
		logger:       logger,
		workersCount: workersCount,
	}
}

func (pm *parseManager) run(ctx context.Context, lines <-chan source.Line, results chan<- entity.SourcedEvent, cancel context.CancelCauseFunc) {
	spawnWorker := func(workerID uint) {
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					// The lines channel is closed and empty. No more work.
					return
				}

				event, err := pm.parser.ParseLine(line.Text, line.Number)
				if err != nil {
					if pm.parser.Lenient() {
						pm.logger.Warn("skipped unparsable line.",
							"source", line.Source, "line", line.Number, "error", err)
						continue
					}
					pm.logger.Error("stopping on parse fault.",
						"source", line.Source, "line", line.Number, "error", err)
					cancel(err)
					return
				}
				if event == nil {
					// Blank line.
					continue
				}

				pm.logger.Debug("parsed event.", "worker_id", workerID, "source", line.Source, "line", line.Number)

				select {
				case results <- entity.SourcedEvent{Source: line.Source, Event: *event}:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := uint(0); i < pm.workersCount; i++ {
		pm.wg.Go(func() {
			spawnWorker(i)
		})
	}

	pm.wg.Wait()
	close(results)
}
