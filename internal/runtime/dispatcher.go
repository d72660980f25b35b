package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brainstem-ai/brainstem/internal/logging"
)

const userVisibleHandlerError = "Something went wrong handling that message. Please try again."

// Dispatcher executes queued messages strictly sequentially against a
// Handler. A new user message never begins processing while a prior turn is
// in flight, and the in-flight turn can be cancelled without tearing the
// dispatcher down.
type Dispatcher struct {
	handler Handler

	queue chan queuedMessage
	done  chan struct{}

	mu        sync.Mutex
	started   bool
	rootCtx   context.Context
	cancelRun context.CancelFunc
}

type queuedMessage struct {
	msg    *Message
	writer ResponseWriter
}

// NewDispatcher creates a dispatcher with a fixed-size FIFO queue.
func NewDispatcher(handler Handler, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		handler: handler,
		queue:   make(chan queuedMessage, queueSize),
		done:    make(chan struct{}),
	}
}

// Start begins the dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d == nil || d.handler == nil {
		return errors.New("dispatcher requires a handler")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return errors.New("dispatcher already started")
	}
	d.started = true
	d.rootCtx = ctx
	d.mu.Unlock()

	go d.loop(ctx)
	return nil
}

// Enqueue submits one message for processing in arrival order.
func (d *Dispatcher) Enqueue(ctx context.Context, msg *Message, writer ResponseWriter) error {
	if msg == nil {
		return errors.New("message is required")
	}
	if writer == nil {
		return errors.New("response writer is required")
	}

	d.mu.Lock()
	rootCtx, started := d.rootCtx, d.started
	d.mu.Unlock()
	if !started {
		return errors.New("dispatcher is not started")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-rootCtx.Done():
		return rootCtx.Err()
	case <-ctx.Done():
		return ctx.Err()
	case d.queue <- queuedMessage{msg: msg, writer: writer}:
		return nil
	}
}

// CancelActive aborts the in-flight turn, if any. Queued messages are kept.
// It reports whether a turn was actually running.
func (d *Dispatcher) CancelActive() bool {
	d.mu.Lock()
	cancel := d.cancelRun
	d.cancelRun = nil
	d.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Stop cancels the in-flight turn and discards all queued messages.
func (d *Dispatcher) Stop() {
	d.CancelActive()
	for {
		select {
		case <-d.queue:
		default:
			return
		}
	}
}

// WaitUntilIdle blocks until no turn is running and the queue is empty.
func (d *Dispatcher) WaitUntilIdle(ctx context.Context) error {
	if d == nil {
		return errors.New("dispatcher is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if d.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Wait blocks until the dispatch loop exits.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	<-d.done
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.CancelActive()
			return
		case item := <-d.queue:
			if item.msg == nil || item.writer == nil {
				continue
			}
			d.runOne(ctx, item)
		}
	}
}

func (d *Dispatcher) runOne(ctx context.Context, item queuedMessage) {
	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancelRun = cancel
	d.mu.Unlock()

	err := d.handler.HandleMessage(runCtx, item.writer, item.msg)

	d.mu.Lock()
	d.cancelRun = nil
	d.mu.Unlock()
	cancel()

	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	logging.Logger().Error("message handling failed", "err", err)
	if writeErr := item.writer.WriteMessage(ctx, userVisibleHandlerError); writeErr != nil {
		logging.Logger().Warn("failed to write handler error message", "err", writeErr)
	}
}

func (d *Dispatcher) idle() bool {
	d.mu.Lock()
	running := d.cancelRun != nil
	started := d.started
	d.mu.Unlock()

	if !started {
		return true
	}
	return !running && len(d.queue) == 0
}
