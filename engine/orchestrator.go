package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/parser"
	"github.com/thisisjab/clefzilla/source"
)

type Config struct {
	Sources              map[string]LineProvider
	Parser               *parser.Parser
	Storage              Storage
	StorageFlushInterval time.Duration
	RawLinesBufferSize   uint
	EventsBufferSize     uint
	ParserWorkersCount   uint
}

// Engine orchestrates the bulk-load path: line providers fan into a worker
// pool running the CLEF parser, and parsed events are buffered and flushed
// into storage. With a lenient parser, unparsable lines are logged and
// skipped; with a strict one the first fault stops the run.
type Engine struct {
	cfg            Config
	logger         *slog.Logger
	storageManager *storageManager
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:            cfg,
		logger:         logger,
		storageManager: newStorageManager(logger, cfg.Storage, cfg.RawLinesBufferSize, cfg.StorageFlushInterval),
	}, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no line sources are configured")
	}

	if c.Parser == nil {
		return errors.New("no parser is configured")
	}

	if c.Storage == nil {
		return errors.New("no storage is configured")
	}

	if c.RawLinesBufferSize == 0 && c.StorageFlushInterval == 0 {
		return errors.New("buffer max size and storage flush interval cannot both be zero")
	}

	if c.EventsBufferSize == 0 {
		return errors.New("events buffer max size cannot be zero")
	}

	if c.ParserWorkersCount == 0 {
		return errors.New("parser workers cannot be zero")
	}

	return nil
}

func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// Start consuming lines from all providers.
	lines := e.consumeLines(ctx)

	var wg sync.WaitGroup
	events := make(chan entity.SourcedEvent, e.cfg.EventsBufferSize)

	pm := newParseManager(e.logger, e.cfg.Parser, e.cfg.ParserWorkersCount)

	// Storage manager handles buffering and periodic flushes.
	wg.Go(func() { e.storageManager.run(ctx) })
	// Parse manager handles the fan-out pattern; cancel carries the first
	// strict-mode fault back here.
	wg.Go(func() { pm.run(ctx, lines, events, cancel) })

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, ctx.Err()) {
				return cause
			}
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				// All workers finished. Stop the storage manager and wait
				// for it so buffered events reach storage before we return.
				// A strict-mode fault also closes the channel; keep its
				// cause.
				cancel(nil)
				wg.Wait()
				if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
					return cause
				}
				return nil
			}
			e.storageManager.addEvents(ctx, ev)
		}
	}
}

func (e *Engine) consumeLines(ctx context.Context) <-chan source.Line {
	lines := make(chan source.Line, e.cfg.RawLinesBufferSize)
	e.logger.Info("created incoming lines channel.", "size", e.cfg.RawLinesBufferSize)

	var sourceWg sync.WaitGroup

	// Spawn providers
	for n, s := range e.cfg.Sources {
		sourceWg.Add(1)
		go func(name string, src LineProvider) {
			defer sourceWg.Done()
			err := src.Provide(ctx, lines)

			if err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("line source stopped.", "name", name, "error", err)
			}
		}(n, s)
	}

	go func() {
		sourceWg.Wait()
		close(lines)
	}()

	return lines
}
