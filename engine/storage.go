package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/clefzilla/entity"
)

// Storage is the bulk-load target for parsed events. Implementations batch
// rows however they like; the manager handles buffering.
type Storage interface {
	StoreEvents(ctx context.Context, events ...entity.SourcedEvent) error
}

// ConnectedStorage is a Storage backed by a live connection that must be
// established before the first store and released on shutdown.
type ConnectedStorage interface {
	Storage
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
}

// storageManager manages storage operations like inserting, buffering, and
// flushing events. Never disable buffering and scheduled flushing together.
type storageManager struct {
	storage Storage
	logger  *slog.Logger
	buffer  []entity.SourcedEvent
	mutex   sync.Mutex
	wg      sync.WaitGroup

	// bufferMaxSize defines the maximum items the buffer holds before
	// flushing. Reaching it flushes immediately. Zero disables buffering.
	bufferMaxSize uint

	// flushInterval defines the interval at which the buffer is flushed.
	// Zero disables scheduled flushing.
	flushInterval time.Duration
}

func newStorageManager(logger *slog.Logger, storage Storage, bufferMaxSize uint, flushInterval time.Duration) *storageManager {
	return &storageManager{
		logger:        logger,
		storage:       storage,
		bufferMaxSize: bufferMaxSize,
		buffer:        make([]entity.SourcedEvent, 0, bufferMaxSize),
		flushInterval: flushInterval,
	}
}

func (sm *storageManager) run(ctx context.Context) {
	var ticker *time.Ticker

	if sm.flushInterval > 0 {
		ticker = time.NewTicker(sm.flushInterval)
		defer ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			// The run context is already cancelled here; the final flush
			// still has to reach storage.
			sm.flushBuffer(context.WithoutCancel(ctx))
			sm.wg.Wait()
			return
		// If the ticker is disabled, reading from a nil ticker's channel
		// would panic; swap in a channel that blocks forever instead.
		case <-func() <-chan time.Time {
			if ticker != nil {
				return ticker.C
			}
			return make(chan time.Time)
		}():
			sm.flushBuffer(ctx)
		}
	}
}

func (sm *storageManager) flushBuffer(ctx context.Context) {
	var toFlush []entity.SourcedEvent

	// Swap the buffer
	sm.mutex.Lock()
	if len(sm.buffer) > 0 {
		toFlush = sm.buffer
		sm.buffer = make([]entity.SourcedEvent, 0, sm.bufferMaxSize)
	}
	sm.mutex.Unlock()

	if len(toFlush) > 0 {
		sm.flushEvents(ctx, toFlush)
	}
}

func (sm *storageManager) flushEvents(ctx context.Context, toFlush []entity.SourcedEvent) {
	sm.wg.Go(func() {
		if err := sm.storage.StoreEvents(ctx, toFlush...); err != nil {
			sm.logger.Error("failed to flush events", "error", err)
			return
		}

		sm.logger.Debug("flushed events successfully", "count", len(toFlush))
	})
}

func (sm *storageManager) addEvents(ctx context.Context, events ...entity.SourcedEvent) {
	if len(events) == 0 {
		return
	}

	var toFlush []entity.SourcedEvent

	sm.mutex.Lock()
	sm.buffer = append(sm.buffer, events...)

	// Check if buffer reached flush size
	if sm.bufferMaxSize > 0 && uint(len(sm.buffer)) >= sm.bufferMaxSize {
		toFlush = sm.buffer
		sm.buffer = make([]entity.SourcedEvent, 0, sm.bufferMaxSize)
	}
	sm.mutex.Unlock()

	// Flush asynchronously if needed
	if toFlush != nil {
		sm.flushEvents(ctx, toFlush)
	}
}
