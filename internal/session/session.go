package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"htgo/internal/bus"
	"htgo/internal/events"
	"htgo/internal/protocol"
	"htgo/internal/transport"
)

// State is the connection lifecycle of one session.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

var (
	// ErrNotConnected fails a request issued while disconnected, and every
	// request still pending when the link drops.
	ErrNotConnected = errors.New("session is not connected")
	// ErrTimeout fails a request whose reply never arrived in the window.
	ErrTimeout = errors.New("request timed out")
	// ErrSuperseded fails the older of two requests issued for the same
	// command id: replies carry no sequence number, so a second in-flight
	// request for one id would make reply routing ambiguous.
	ErrSuperseded = errors.New("request superseded by a newer request for the same command")
)

// DefaultRequestTimeout bounds a single command round trip.
const DefaultRequestTimeout = 5 * time.Second

type result struct {
	env protocol.Envelope
	err error
}

// pendingSlot is a single-resolution reply slot. The channel holds one
// result; the Once guards against a double resolve, which would be a
// dispatch logic error.
type pendingSlot struct {
	ch   chan result
	once sync.Once
}

func newPendingSlot() *pendingSlot {
	return &pendingSlot{ch: make(chan result, 1)}
}

func (s *pendingSlot) resolve(res result) {
	s.once.Do(func() {
		s.ch <- res
	})
}

// pendingKey routes replies: the protocol correlates purely on the
// command id, scoped by group.
type pendingKey struct {
	group   protocol.CommandGroup
	command protocol.CommandID
}

type listenerEntry struct {
	id int
	fn func(protocol.Event)
}

// Engine owns the transport for one connection: it frames outbound
// commands, matches inbound replies to pending requests, and fans event
// notifications out to subscribers. One instance per connection; a
// reconnect means a fresh Connect on the same instance.
type Engine struct {
	logger  *slog.Logger
	tr      transport.Transport
	bus     bus.MessageBus
	timeout time.Duration

	mu         sync.Mutex
	state      State
	pending    map[pendingKey]*pendingSlot
	listeners  []listenerEntry
	nextSubID  int
	readCancel context.CancelFunc
}

type Option func(*Engine)

// WithTimeout overrides the per-request reply window.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

func New(logger *slog.Logger, b bus.MessageBus, tr transport.Transport, opts ...Option) *Engine {
	e := &Engine{
		logger:  logger,
		tr:      tr,
		bus:     b,
		timeout: DefaultRequestTimeout,
		state:   StateDisconnected,
		pending: make(map[pendingKey]*pendingSlot),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Connect opens the transport and starts the inbound dispatch loop.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateDisconnected {
		e.mu.Unlock()

		return nil
	}
	e.state = StateConnecting
	e.mu.Unlock()
	e.publishConnStatus(events.ConnectionStateConnecting, nil)

	if err := e.tr.Connect(ctx); err != nil {
		e.mu.Lock()
		e.state = StateDisconnected
		e.mu.Unlock()
		e.publishConnStatus(events.ConnectionStateDisconnected, err)

		return fmt.Errorf("connect transport: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.state = StateConnected
	e.readCancel = cancel
	e.mu.Unlock()
	go e.readLoop(readCtx)
	e.publishConnStatus(events.ConnectionStateConnected, nil)

	return nil
}

// Close tears the session down: the transport is closed and every
// outstanding request fails with ErrNotConnected in one pass. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateDisconnected {
		e.mu.Unlock()

		return nil
	}
	e.state = StateDisconnected
	cancel := e.readCancel
	e.readCancel = nil
	drained := e.drainPendingLocked()
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	err := e.tr.Close()
	failAll(drained, ErrNotConnected)
	e.publishConnStatus(events.ConnectionStateDisconnected, nil)

	return err
}

// Request sends one command and waits for the matching reply, the reply
// window to elapse, ctx cancellation, or disconnect. Issuing a second
// request for a command id that is still pending cancels the older
// waiter before the new one is registered.
func (e *Engine) Request(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error) {
	key := pendingKey{group: env.Group, command: env.Command}

	e.mu.Lock()
	if e.state != StateConnected {
		e.mu.Unlock()

		return protocol.Envelope{}, ErrNotConnected
	}
	if old, ok := e.pending[key]; ok {
		old.resolve(result{err: ErrSuperseded})
	}
	slot := newPendingSlot()
	e.pending[key] = slot
	e.mu.Unlock()

	if err := e.writeFrame(ctx, env); err != nil {
		e.removeSlot(key, slot)

		return protocol.Envelope{}, err
	}

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-slot.ch:
		return res.env, res.err
	case <-timer.C:
		// Clear the slot so a late reply is dropped instead of matched to
		// a caller that already gave up.
		e.removeSlot(key, slot)

		return protocol.Envelope{}, fmt.Errorf("command %d: %w", env.Command, ErrTimeout)
	case <-ctx.Done():
		e.removeSlot(key, slot)

		return protocol.Envelope{}, ctx.Err()
	}
}

// Send transmits a command without waiting for any reply. Used for the
// fire-and-forget event-enable registration.
func (e *Engine) Send(ctx context.Context, env protocol.Envelope) error {
	e.mu.Lock()
	if e.state != StateConnected {
		e.mu.Unlock()

		return ErrNotConnected
	}
	e.mu.Unlock()

	return e.writeFrame(ctx, env)
}

// Subscribe registers an event listener. Listeners run synchronously in
// registration order on the dispatch goroutine, so they must not block
// indefinitely. The returned function unsubscribes and is safe to call
// during delivery.
func (e *Engine) Subscribe(fn func(protocol.Event)) func() {
	e.mu.Lock()
	e.nextSubID++
	id := e.nextSubID
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, entry := range e.listeners {
			if entry.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)

				return
			}
		}
	}
}

func (e *Engine) writeFrame(ctx context.Context, env protocol.Envelope) error {
	payload := env.Encode()
	if err := e.tr.WriteFrame(ctx, payload); err != nil {
		return fmt.Errorf("send command %d: %w", env.Command, err)
	}
	e.bus.Publish(events.TopicRawFrameOut, events.RawFrame{
		Hex: strings.ToUpper(hex.EncodeToString(payload)),
		Len: len(payload),
	})

	return nil
}

func (e *Engine) readLoop(ctx context.Context) {
	for {
		payload, err := e.tr.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.handleTransportFailure(err)

			return
		}
		e.bus.Publish(events.TopicRawFrameIn, events.RawFrame{
			Hex: strings.ToUpper(hex.EncodeToString(payload)),
			Len: len(payload),
		})
		e.dispatch(payload)
	}
}

// dispatch processes one inbound frame. Decode failures drop the frame
// and keep the session alive.
func (e *Engine) dispatch(payload []byte) {
	env, err := protocol.DecodeEnvelope(payload)
	if err != nil {
		e.logger.Warn("decode inbound frame failed", "error", err, "len", len(payload))

		return
	}

	if env.IsReply {
		key := pendingKey{group: env.Group, command: env.Command}
		e.mu.Lock()
		slot, ok := e.pending[key]
		if ok {
			delete(e.pending, key)
		}
		e.mu.Unlock()
		if !ok {
			// Nobody is waiting: a late reply after timeout or cancel.
			e.logger.Debug("dropping unmatched reply", "command", env.Command)

			return
		}
		slot.resolve(result{env: env})

		return
	}

	if env.Command != protocol.CmdEventNotification {
		e.logger.Debug("dropping unsolicited non-event frame", "command", env.Command)

		return
	}

	ev, err := protocol.DecodeEvent(env.Body)
	if err != nil {
		e.logger.Warn("decode event failed", "error", err)

		return
	}

	e.mu.Lock()
	snapshot := make([]listenerEntry, len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()
	for _, entry := range snapshot {
		entry.fn(ev)
	}
}

func (e *Engine) handleTransportFailure(err error) {
	e.logger.Warn("transport failed, tearing session down", "error", err)

	e.mu.Lock()
	if e.state == StateDisconnected {
		e.mu.Unlock()

		return
	}
	e.state = StateDisconnected
	e.readCancel = nil
	drained := e.drainPendingLocked()
	e.mu.Unlock()

	_ = e.tr.Close()
	failAll(drained, ErrNotConnected)
	e.publishConnStatus(events.ConnectionStateDisconnected, err)
}

func (e *Engine) drainPendingLocked() []*pendingSlot {
	drained := make([]*pendingSlot, 0, len(e.pending))
	for key, slot := range e.pending {
		drained = append(drained, slot)
		delete(e.pending, key)
	}

	return drained
}

func failAll(slots []*pendingSlot, err error) {
	for _, slot := range slots {
		slot.resolve(result{err: err})
	}
}

// removeSlot clears a pending entry, but only if it still belongs to the
// caller: a newer request may have replaced it in the meantime.
func (e *Engine) removeSlot(key pendingKey, slot *pendingSlot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if current, ok := e.pending[key]; ok && current == slot {
		delete(e.pending, key)
	}
}

func (e *Engine) publishConnStatus(state events.ConnectionState, err error) {
	status := events.ConnStatus{
		State:         state,
		TransportName: e.tr.Name(),
		Timestamp:     time.Now(),
	}
	if resolver, ok := e.tr.(transport.StatusTargetResolver); ok {
		status.Target = resolver.StatusTarget()
	}
	if err != nil {
		status.Err = err.Error()
	}
	e.bus.Publish(events.TopicConnStatus, status)
}
