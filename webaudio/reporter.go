package webaudio

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultErrorQueueSize is the capacity of the processing-error queue.
const DefaultErrorQueueSize = 64

// ProcessingErrorHandler receives processing errors on the reporter
// goroutine, never on the render thread.
type ProcessingErrorHandler func(*ProcessingError)

// reporter moves processing errors off the render thread. The render side
// never blocks: when the queue is full the error is counted and dropped.
type reporter struct {
	ch      chan *ProcessingError
	dropped atomic.Uint64
	logger  *slog.Logger
	handler ProcessingErrorHandler

	closeOnce sync.Once
	quit      chan struct{}
	done      chan struct{}
}

func newReporter(size int, logger *slog.Logger, handler ProcessingErrorHandler) *reporter {
	r := &reporter{
		ch:      make(chan *ProcessingError, size),
		logger:  logger,
		handler: handler,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *reporter) report(e *ProcessingError) {
	select {
	case r.ch <- e:
	default:
		r.dropped.Add(1)
	}
}

func (r *reporter) run() {
	defer close(r.done)

	for {
		select {
		case e := <-r.ch:
			r.handle(e)
		case <-r.quit:
			for {
				select {
				case e := <-r.ch:
					r.handle(e)
				default:
					return
				}
			}
		}
	}
}

func (r *reporter) handle(e *ProcessingError) {
	r.logger.Warn("node processing failed",
		slog.String("node", e.Node),
		slog.String("type", e.Type.String()),
		slog.Int64("frame", e.Frame),
		slog.Any("error", e.Cause),
	)
	if r.handler != nil {
		r.handler(e)
	}
}

// close delivers pending errors and stops the goroutine. The channel stays
// open, so a late report only lands in the buffer or is dropped.
func (r *reporter) close() {
	r.closeOnce.Do(func() {
		close(r.quit)
	})
	<-r.done
}
