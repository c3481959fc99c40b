package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the async log pipeline.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type pendingRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// shipper owns the queue shared by an AsyncHandler and its derived handlers.
type shipper struct {
	queue        chan pendingRecord
	flushTimeout time.Duration
	mu           sync.RWMutex // guards closed and close(queue)
	closed       bool
	dropped      atomic.Uint64
	done         sync.WaitGroup
}

func newShipper(opts AsyncOptions) *shipper {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultAsyncBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultAsyncFlushTimeout
	}
	s := &shipper{
		queue:        make(chan pendingRecord, opts.BufferSize),
		flushTimeout: opts.FlushTimeout,
	}
	s.done.Go(func() {
		for p := range s.queue {
			_ = p.handler.Handle(p.ctx, p.record)
		}
	})
	return s
}

// push never blocks; a full queue drops the record.
func (s *shipper) push(p pendingRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- p:
	default:
		s.dropped.Add(1)
	}
}

func (s *shipper) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.flushTimeout)
		defer cancel()
	}

	drained := make(chan struct{})
	go func() {
		s.done.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler wraps a remote slog.Handler so log shipping never blocks
// the webhook path.
type AsyncHandler struct {
	shipper *shipper
	handler slog.Handler
}

// NewAsyncHandler creates a new async handler with its own queue.
func NewAsyncHandler(handler slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{shipper: newShipper(opts), handler: handler}
}

// Enabled reports whether the underlying handler is enabled for the given level.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enqueues the record. The context is detached so a finished
// request does not cancel shipping.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	h.shipper.push(pendingRecord{
		ctx:     context.WithoutCancel(ctx),
		record:  r.Clone(),
		handler: h.handler,
	})
	return nil
}

// WithAttrs returns a handler sharing the same queue.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{shipper: h.shipper, handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a handler sharing the same queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{shipper: h.shipper, handler: h.handler.WithGroup(name)}
}

// Dropped returns how many records were discarded because the queue was full.
func (h *AsyncHandler) Dropped() uint64 {
	return h.shipper.dropped.Load()
}

// Shutdown drains pending records, bounded by ctx or the flush timeout.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.shipper == nil {
		return nil
	}
	return h.shipper.close(ctx)
}
